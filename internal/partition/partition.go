// Package partition models the typed elements produced by a document
// partitioner and separates them into the content types the pipeline
// indexes. Partitioning itself is an external collaborator; see the
// unstructured and localpdf sub-packages for the clients.
package partition

import "context"

// Element kinds as reported by the partitioner.
const (
	ElementComposite = "CompositeElement"
	ElementTable     = "Table"
)

// Embedded is a sub-element nested inside a composite block, possibly
// carrying an image payload either pre-encoded or as raw bytes.
type Embedded struct {
	ImageBase64 string
	ImageBytes  []byte
}

// Element is one partitioned block of a source document.
type Element struct {
	Kind     string
	Text     string
	HTML     string // structured markup for table elements, when available
	Embedded []Embedded
}

// Partitioner turns a source PDF into a sequence of typed elements.
type Partitioner interface {
	Partition(ctx context.Context, pdfPath string) ([]Element, error)
}
