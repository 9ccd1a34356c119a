// Command variantctl generates and checks product variants from an option
// file without a running catalog editor.
//
//	variantctl validate --file options.yaml
//	variantctl generate --file options.yaml --product-id 3f0c... --format yaml
//	variantctl export --file options.yaml --product-id 3f0c... --out variants.xlsx
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
