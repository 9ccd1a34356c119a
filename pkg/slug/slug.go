package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into a base letter plus a combining mark.
var foldReplacer = strings.NewReplacer(
	"&", " and ",
	"ß", "ss",
	"æ", "ae",
	"ø", "o",
	"œ", "oe",
	"ł", "l",
	"đ", "d",
	"ı", "i",
)

// Generate creates a URL-friendly slug from the given name.
// Accented Latin letters are folded to their ASCII base letter.
//
// Examples:
//   - "Crème Brûlée Board" → "creme-brulee-board"
//   - "Salt & Pepper" → "salt-and-pepper"
//   - "Hello   World!" → "hello-world"
func Generate(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = foldReplacer.Replace(slug)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, slug); err == nil {
		slug = folded
	}

	slug = slugRegexp.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
