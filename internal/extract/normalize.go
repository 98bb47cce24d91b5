package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC, unifies line endings, keeps newlines and tabs,
// collapses other whitespace to plain spaces, and drops control and format
// characters. Indexed record text goes through this so search and display
// behave consistently across extractors.
func Normalize(text string) string {
	normalized := norm.NFKC.String(text)
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var out strings.Builder
	out.Grow(len(normalized))
	for _, ch := range normalized {
		if ch == '\n' || ch == '\t' {
			out.WriteRune(ch)
			continue
		}
		if unicode.IsSpace(ch) {
			out.WriteRune(' ')
			continue
		}
		if unicode.Is(unicode.Cc, ch) || unicode.Is(unicode.Cf, ch) {
			continue
		}
		out.WriteRune(ch)
	}
	return out.String()
}
