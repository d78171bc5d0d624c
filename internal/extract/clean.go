package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// quoteReplacer maps typographic quotes and dashes to ASCII before matching.
var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"–", "-", "—", "-",
	" ", " ",
)

// Canonicalize normalizes an extracted company or title for storage and
// matching: NFKC fold, quote/whitespace normalization, trailing punctuation
// and legal suffix strip. Results shorter than two characters are unusable
// and collapse to "".
func Canonicalize(s string, legalSuffixes []string) string {
	s = norm.NFKC.String(s)
	s = quoteReplacer.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, `"'`)
	s = strings.TrimRight(s, ".,;:!-| ")
	s = stripLegalSuffix(s, legalSuffixes)

	if len(s) < 2 {
		return ""
	}
	return s
}

// stripLegalSuffix removes a single trailing legal entity suffix ("Inc",
// "LLC", ...) together with any comma preceding it.
func stripLegalSuffix(s string, suffixes []string) string {
	words := strings.Fields(s)
	if len(words) < 2 {
		return s
	}
	last := strings.ToLower(strings.TrimRight(words[len(words)-1], "."))
	for _, suffix := range suffixes {
		if last == strings.ToLower(strings.TrimRight(suffix, ".")) {
			s = strings.Join(words[:len(words)-1], " ")
			return strings.TrimRight(s, ", ")
		}
	}
	return s
}

// NormalizeKey lowercases and trims a company name for index lookups.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
