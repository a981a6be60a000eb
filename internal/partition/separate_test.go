package partition

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeparateClassifiesByKind(t *testing.T) {
	elements := []Element{
		{Kind: ElementComposite, Text: "first paragraph"},
		{Kind: ElementTable, Text: "plain table", HTML: "<table><tr><td>1</td></tr></table>"},
		{Kind: ElementComposite, Text: "second paragraph"},
		{Kind: "Footer", Text: "page 3 of 9"},
	}

	texts, tables, images := Separate(elements)

	assert.Equal(t, []string{"first paragraph", "second paragraph"}, texts)
	assert.Equal(t, []string{"<table><tr><td>1</td></tr></table>"}, tables)
	assert.Empty(t, images)
}

func TestSeparateFallsBackToTableText(t *testing.T) {
	_, tables, _ := Separate([]Element{{Kind: ElementTable, Text: "a | b"}})
	assert.Equal(t, []string{"a | b"}, tables)
}

func TestSeparatePrefersEncodedImagePayload(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff}
	elements := []Element{
		{
			Kind: ElementComposite,
			Text: "figure caption",
			Embedded: []Embedded{
				{ImageBase64: "already-encoded", ImageBytes: raw},
				{ImageBytes: raw},
			},
		},
		// Images on non-composite elements are not scanned.
		{Kind: ElementTable, Embedded: []Embedded{{ImageBase64: "ignored"}}},
	}

	_, _, images := Separate(elements)

	assert.Equal(t, []string{
		"already-encoded",
		base64.StdEncoding.EncodeToString(raw),
	}, images)
}

func TestSeparateEmptyInput(t *testing.T) {
	texts, tables, images := Separate(nil)
	assert.Empty(t, texts)
	assert.Empty(t, tables)
	assert.Empty(t, images)
}
