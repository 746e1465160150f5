// Package naming converts attribute identifiers from the snake_case form used
// in entity declarations to the camelCase form Kubernetes manifests use.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// wordSeparator marks a word boundary in a declared attribute name.
const wordSeparator = "_"

// ToCamel maps a snake_case identifier to camelCase: separators are removed
// and the first rune of every word after the first is upper-cased. The
// remaining runes are kept as written, so acronyms survive
// ("insecure_skip_TLS_verify" becomes "insecureSkipTLSVerify").
//
// ToCamel must be applied once, to attribute names only. Its output contains
// no separators, so a second application is undefined.
func ToCamel(name string) string {
	if !strings.Contains(name, wordSeparator) {
		return name
	}

	words := strings.Split(name, wordSeparator)

	var b strings.Builder

	b.Grow(len(name))

	first := true

	for _, w := range words {
		if w == "" {
			continue
		}

		if first {
			b.WriteString(w)
			first = false

			continue
		}

		r, size := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(w[size:])
	}

	return b.String()
}
