package partition

import (
	"encoding/base64"
	"log/slog"
)

// Separate classifies partitioned elements into three homogeneous
// collections: narrative text blocks, tables as structured markup, and
// base64-encoded images pulled from composite blocks' embedded
// sub-elements. Elements matching no rule are silently dropped; ordering is
// FIFO within each type.
func Separate(elements []Element) (texts, tables, images []string) {
	for _, el := range elements {
		switch el.Kind {
		case ElementTable:
			if el.HTML != "" {
				tables = append(tables, el.HTML)
			} else {
				tables = append(tables, el.Text)
			}
		case ElementComposite:
			texts = append(texts, el.Text)
		}
	}
	images = extractImages(elements)

	slog.Debug("separated elements",
		"texts", len(texts), "tables", len(tables), "images", len(images))
	return texts, tables, images
}

// extractImages walks composite elements' embedded sub-elements and pulls
// out image payloads, preferring the pre-encoded field over raw bytes.
func extractImages(elements []Element) []string {
	var images []string
	for _, el := range elements {
		if el.Kind != ElementComposite {
			continue
		}
		for _, sub := range el.Embedded {
			if sub.ImageBase64 != "" {
				images = append(images, sub.ImageBase64)
				continue
			}
			if len(sub.ImageBytes) > 0 {
				images = append(images, base64.StdEncoding.EncodeToString(sub.ImageBytes))
			}
		}
	}
	return images
}
