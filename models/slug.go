package models

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid     = regexp.MustCompile(`[^a-z0-9-]+`)
	slugMultiHyphen = regexp.MustCompile(`-{2,}`)
)

// GenerateSlug turns a title into a lowercase, hyphen-separated URL slug.
// Accents are stripped and non-Latin scripts are transliterated.
func GenerateSlug(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	slug, _, err := transform.String(t, title)
	if err != nil {
		slug = title
	}

	slug = unidecode.Unidecode(slug)
	slug = strings.ToLower(slug)
	slug = strings.Join(strings.Fields(slug), "-")
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugMultiHyphen.ReplaceAllString(slug, "-")

	return strings.Trim(slug, "-")
}

// IsValidSlug reports whether s is already in slug form.
func IsValidSlug(s string) bool {
	return s != "" && GenerateSlug(s) == s
}
