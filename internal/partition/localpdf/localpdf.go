// Package localpdf is a fallback partitioner that extracts plain page text
// from a PDF without an external service. It produces composite text
// elements only: no table structure and no image payloads.
package localpdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"multirag/internal/partition"
)

// Partitioner extracts one composite element per non-empty page.
type Partitioner struct{}

// New returns a local text-only partitioner.
func New() *Partitioner { return &Partitioner{} }

// Partition reads the PDF at pdfPath and returns its page texts as
// composite elements.
func (p *Partitioner) Partition(ctx context.Context, pdfPath string) ([]partition.Element, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("localpdf: open %s: %w", pdfPath, err)
	}
	defer f.Close()

	var elements []partition.Element
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("localpdf: extract page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		elements = append(elements, partition.Element{
			Kind: partition.ElementComposite,
			Text: text,
		})
	}
	return elements, nil
}
