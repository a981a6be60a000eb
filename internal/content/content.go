// Package content classifies retrieved payloads so the consumer can route
// each to the correct prompt slot.
package content

import "regexp"

// base64Re matches strings made only of base64 alphabet characters with
// optional trailing padding.
var base64Re = regexp.MustCompile(`^[A-Za-z0-9+/\n\r]+=*$`)

const (
	minImageLen = 200
	checkPrefix = 500
)

// LooksLikeBase64Image reports whether s looks like a base64-encoded image
// payload. This is a documented heuristic, not a guarantee: very long text
// made only of base64 alphabet characters would misclassify. Only a bounded
// prefix is scanned so megabyte payloads stay cheap to test.
func LooksLikeBase64Image(s string) bool {
	if len(s) < minImageLen {
		return false
	}
	prefix := s
	if len(prefix) > checkPrefix {
		prefix = prefix[:checkPrefix]
	}
	return base64Re.MatchString(prefix)
}
