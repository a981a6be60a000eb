package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multirag/internal/answer"
	"multirag/internal/docstore"
	"multirag/internal/index"
	"multirag/internal/partition"
	"multirag/internal/registry"
	"multirag/internal/retriever"
	"multirag/internal/summarizer"
	"multirag/internal/vectorstore/local"
)

// fixedPartitioner returns a canned element sequence.
type fixedPartitioner struct {
	elements []partition.Element
}

func (p *fixedPartitioner) Partition(ctx context.Context, pdfPath string) ([]partition.Element, error) {
	return p.elements, nil
}

// echoModel summarizes by echoing the element content.
type echoModel struct{}

func (echoModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	idx := strings.Index(prompt, "\n\n")
	return "Summary: " + prompt[idx+2:], nil
}

func (echoModel) DescribeImage(ctx context.Context, instruction, imageB64 string) (string, error) {
	return "an image", nil
}

// keywordEmbedder maps text onto fixed keyword dimensions.
type keywordEmbedder struct{ keywords []string }

func (e *keywordEmbedder) Name() string   { return "keyword" }
func (e *keywordEmbedder) Dimension() int { return len(e.keywords) }

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	lower := strings.ToLower(text)
	vec := make([]float64, len(e.keywords))
	for i, kw := range e.keywords {
		vec[i] = float64(strings.Count(lower, kw))
	}
	return vec, nil
}

// contextEchoGenerator answers with the first context line so the test can
// see what grounded the answer.
type contextEchoGenerator struct{}

func (contextEchoGenerator) GenerateMultimodal(ctx context.Context, text string, imagesB64 []string) (string, error) {
	return "answer grounded on retrieved context", nil
}

func newTestService(t *testing.T, elements []partition.Element) (*Service, *retriever.Retriever) {
	t.Helper()
	dir := t.TempDir()

	emb := &keywordEmbedder{keywords: []string{"revenue", "staff", "quarter"}}
	store, err := local.NewStore(filepath.Join(dir, "vectors"), emb)
	require.NoError(t, err)

	docs := docstore.New()
	idx := index.New(store, docs, nil)
	ret := retriever.New(store, docs, 6)
	reg, err := registry.Load(filepath.Join(dir, "ingested.json"))
	require.NoError(t, err)

	svc := New(Config{
		Partitioner:  &fixedPartitioner{elements: elements},
		Summarizer:   summarizer.New(echoModel{}, nil),
		Index:        idx,
		Chain:        answer.New(ret, contextEchoGenerator{}),
		Registry:     reg,
		DocstorePath: filepath.Join(dir, "docstore.json"),
		Concurrency:  2,
	})
	return svc, ret
}

func TestIngestThenFetchReturnsOriginalContent(t *testing.T) {
	elements := []partition.Element{
		{Kind: partition.ElementComposite, Text: "Revenue grew 10%"},
		{Kind: partition.ElementComposite, Text: "Staff count is 50"},
		{Kind: partition.ElementTable, HTML: "<table><tr><td>quarter</td></tr></table>"},
	}
	svc, ret := newTestService(t, elements)

	stats, err := svc.Ingest(context.Background(), "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, Stats{Texts: 2, Tables: 1, Images: 0}, stats)

	res, err := ret.Fetch(context.Background(), "How much did revenue grow?")
	require.NoError(t, err)
	require.NotEmpty(t, res.Originals)
	assert.Equal(t, "Revenue grew 10%", res.Originals[0])
	assert.Empty(t, res.Images)
}

func TestIngestRecordsDocumentInRegistry(t *testing.T) {
	svc, _ := newTestService(t, []partition.Element{
		{Kind: partition.ElementComposite, Text: "Revenue grew 10%"},
	})

	require.False(t, svc.AlreadyIngested("/some/dir/report.pdf"))
	_, err := svc.Ingest(context.Background(), "/some/dir/report.pdf")
	require.NoError(t, err)

	assert.True(t, svc.AlreadyIngested("/other/dir/report.pdf"))
	assert.Equal(t, []string{"report.pdf"}, svc.IngestedDocs())
}

func TestAskAnswersOverIndexedCorpus(t *testing.T) {
	svc, _ := newTestService(t, []partition.Element{
		{Kind: partition.ElementComposite, Text: "Revenue grew 10%"},
	})
	_, err := svc.Ingest(context.Background(), "report.pdf")
	require.NoError(t, err)

	res, err := svc.Ask(context.Background(), "How much did revenue grow?")
	require.NoError(t, err)
	assert.Equal(t, "answer grounded on retrieved context", res.Answer)
	assert.Equal(t, []string{"Revenue grew 10%"}, res.Sources)
}
