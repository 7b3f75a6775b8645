package service

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// TextMetrics contains the metrics extracted from a case body
type TextMetrics struct {
	WordCount int
	Checksum  string
}

// MeasureBody extracts word count and checksum from rendered casebody HTML.
// The word count covers text content only, not markup.
func MeasureBody(body string) TextMetrics {
	metrics := TextMetrics{Checksum: checksum(body)}

	var text strings.Builder
	inTag := false
	for _, r := range body {
		switch {
		case r == '<':
			inTag = true
			text.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			text.WriteRune(r)
		}
	}
	metrics.WordCount = len(strings.Fields(text.String()))

	return metrics
}

func checksum(content string) string {
	hash := md5.Sum([]byte(content))
	return hex.EncodeToString(hash[:])
}
