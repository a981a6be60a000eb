package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeBase64Image(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"long base64 alphabet", strings.Repeat("iVBORw0KGgoAAAANSUhEUg+/", 12), true},
		{"300 alphanumeric with padding", strings.Repeat("Ab9", 100) + "==", true},
		{"short prose", "Revenue grew 10% compared to last year.", false},
		{"prose under 200 chars with spaces", strings.Repeat("word ", 30), false},
		{"long prose with punctuation", strings.Repeat("The quick brown fox, jumping. ", 20), false},
		{"empty", "", false},
		{"exactly below threshold", strings.Repeat("A", 199), false},
		{"exactly at threshold", strings.Repeat("A", 200), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeBase64Image(tt.in))
		})
	}
}

func TestLooksLikeBase64ImageChecksBoundedPrefix(t *testing.T) {
	// Garbage past the inspected prefix must not change the verdict.
	s := strings.Repeat("A", 600) + " not base64 at all!"
	assert.True(t, LooksLikeBase64Image(s))
}
