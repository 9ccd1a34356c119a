package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/export"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/slug"
)

// errInvalidOptions is returned after the violations have been printed.
var errInvalidOptions = errors.New("option schema violations found")

// optionFile is the YAML document read by every command.
type optionFile struct {
	Name    string          `yaml:"name"`
	Options []domain.Option `yaml:"options"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "variantctl",
		Short:         "Generate and validate product variants from an option file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newValidateCmd(), newGenerateCmd(), newExportCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an option file against the option schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := readOptionFile(file)
			if err != nil {
				return err
			}
			if err := checkOptions(cmd.OutOrStdout(), doc.Options); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d option(s) OK\n", file, len(doc.Options))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "option file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var file, productID, format string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print the variants generated from an option file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (want json or yaml)", format)
			}
			doc, err := readOptionFile(file)
			if err != nil {
				return err
			}
			if err := checkOptions(cmd.ErrOrStderr(), doc.Options); err != nil {
				return err
			}
			variants := domain.GenerateVariants(domain.PublishedID(productID), doc.Options)
			return writeVariants(cmd.OutOrStdout(), format, variants)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "option file (YAML)")
	cmd.Flags().StringVar(&productID, "product-id", "", "product id used in variant keys")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("product-id")
	return cmd
}

func newExportCmd() *cobra.Command {
	var file, productID, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the generated variants to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := readOptionFile(file)
			if err != nil {
				return err
			}
			if err := checkOptions(cmd.ErrOrStderr(), doc.Options); err != nil {
				return err
			}

			id := domain.PublishedID(productID)
			product := &domain.Product{
				ID:       id,
				Name:     doc.Name,
				Slug:     slug.Generate(doc.Name),
				Options:  doc.Options,
				Variants: domain.GenerateVariants(id, doc.Options),
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.WriteVariants(f, product); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d variant(s) to %s\n", len(product.Variants), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "option file (YAML)")
	cmd.Flags().StringVar(&productID, "product-id", "", "product id used in variant keys")
	cmd.Flags().StringVarP(&out, "out", "o", "variants.xlsx", "output workbook")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("product-id")
	return cmd
}

func readOptionFile(path string) (*optionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read option file: %w", err)
	}
	var doc optionFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse option file %s: %w", path, err)
	}
	domain.NormalizeOptions(doc.Options)
	return &doc, nil
}

// checkOptions prints one line per violation, sorted by field path.
func checkOptions(w io.Writer, options []domain.Option) error {
	errs := domain.ValidateOptions(options)
	if len(errs) == 0 {
		return nil
	}
	paths := make([]string, 0, len(errs))
	for path := range errs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Fprintf(w, "%s: %s\n", path, errs[path])
	}
	return errInvalidOptions
}

func writeVariants(w io.Writer, format string, variants []domain.Variant) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(variants); err != nil {
			return fmt.Errorf("encode variants: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(variants)
}
