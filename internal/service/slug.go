package service

import (
	"strings"
	"unicode"
)

// Slugify normalizes a series or volume identifier for use in a canonical
// URL: lowercased, with runs of non-alphanumeric characters collapsed to
// single hyphens. Matches the slug form stored on reporters and volumes, so
// a request path that survives Slugify unchanged is canonical.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	return b.String()
}

// FullCite reconstructs the human-readable citation from URL parts, e.g.
// ("ill-2d", "1", "1") -> "1 Ill 2d 1".
func FullCite(seriesSlug, volumeSlug, page string) string {
	series := titleCase(strings.ReplaceAll(seriesSlug, "-", " "))
	return volumeSlug + " " + series + " " + page
}

// NormalizeCite reduces a citation string to its lookup key: lowercase with
// everything but letters and digits removed, e.g. "1 Ill. 2d 1" -> "1ill2d1".
func NormalizeCite(cite string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(cite) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
