package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multirag/internal/retriever"
)

type stubFetcher struct {
	res retriever.Results
	err error
}

func (s *stubFetcher) Fetch(ctx context.Context, query string) (retriever.Results, error) {
	return s.res, s.err
}

type stubGenerator struct {
	gotPrompt string
	gotImages []string
}

func (s *stubGenerator) GenerateMultimodal(ctx context.Context, text string, imagesB64 []string) (string, error) {
	s.gotPrompt = text
	s.gotImages = imagesB64
	return "  Revenue grew by 10%.  ", nil
}

func TestAnswerBuildsPromptFromContext(t *testing.T) {
	fetcher := &stubFetcher{res: retriever.Results{
		Texts:  []string{"Revenue grew 10%", "Staff count is 50"},
		Images: []string{"imgdata"},
	}}
	gen := &stubGenerator{}
	chain := New(fetcher, gen)

	res, err := chain.Answer(context.Background(), "How much did revenue grow?")
	require.NoError(t, err)

	assert.Equal(t, "Revenue grew by 10%.", res.Answer)
	assert.Equal(t, []string{"Revenue grew 10%", "Staff count is 50"}, res.Sources)
	assert.Equal(t, 1, res.ImageCount)
	assert.Equal(t, []string{"imgdata"}, gen.gotImages)
	assert.Contains(t, gen.gotPrompt, "CONTEXT:\nRevenue grew 10%\n\n---\n\nStaff count is 50")
	assert.Contains(t, gen.gotPrompt, "QUESTION:\nHow much did revenue grow?")
}

func TestAnswerOmitsContextBlockWhenEmpty(t *testing.T) {
	gen := &stubGenerator{}
	chain := New(&stubFetcher{}, gen)

	_, err := chain.Answer(context.Background(), "anything?")
	require.NoError(t, err)
	assert.NotContains(t, gen.gotPrompt, "CONTEXT:")
}

func TestAnswerSurfacesRetrievalError(t *testing.T) {
	chain := New(&stubFetcher{err: errors.New("store desync")}, &stubGenerator{})

	_, err := chain.Answer(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store desync")
}
