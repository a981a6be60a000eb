package domain

// Kind discriminates the three content types the pipeline handles.
// Every consumer dispatches on this tag rather than inspecting payloads.
type Kind string

const (
	KindText  Kind = "text"
	KindTable Kind = "table"
	KindImage Kind = "image"
)

// ContentUnit is one atomic piece of document content after separation.
// Payload is UTF-8 text for text/table units (table payload is structured
// markup) and a base64-encoded image string for image units. Units are
// immutable once produced.
type ContentUnit struct {
	Kind    Kind
	Payload string
}

// Surrogate is the short text description of a ContentUnit that gets
// embedded for similarity search. Originals are never embedded directly.
type Surrogate struct {
	Text       string
	SourceKind Kind
}

// UnitsOf wraps raw payloads of one kind into content units.
func UnitsOf(kind Kind, payloads []string) []ContentUnit {
	units := make([]ContentUnit, len(payloads))
	for i, p := range payloads {
		units[i] = ContentUnit{Kind: kind, Payload: p}
	}
	return units
}
