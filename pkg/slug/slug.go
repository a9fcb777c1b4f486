// Package slug derives URL-safe identifiers from listing titles.
package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// accentReplacer folds the accented characters that show up in listing
// titles down to plain ASCII so the slug survives in a URL path.
var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n", "ß", "ss",
)

// Generate turns a service title into a lowercase hyphenated slug.
//
// "Deep Home Cleaning" becomes "deep-home-cleaning" and
// "Café & Bakery Catering" becomes "cafe-bakery-catering". Characters
// with no ASCII fold are dropped rather than kept raw.
func Generate(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = accentReplacer.Replace(s)

	// Everything that is not [a-z0-9] becomes a single hyphen.
	s = nonAlnum.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}
