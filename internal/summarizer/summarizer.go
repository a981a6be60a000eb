// Package summarizer turns content units into short textual surrogates
// suitable for embedding. All per-unit failures are absorbed into degraded
// surrogates so one bad external call never drops content from the index.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"multirag/internal/domain"
)

const textPromptFormat = "You are a document analysis assistant. " +
	"Provide a concise, factual summary of the following text or table element. " +
	"Do NOT add any preamble; go straight to the summary.\n\n%s"

const imageInstruction = "You are a document analysis assistant. " +
	"Describe this image in detail. If it contains a chart, diagram, or data visual, " +
	"explain the structure, axes, labels, trends, and any key data points. " +
	"Be factual and concise."

// ImageFallbackSummary stands in for an image whose description call failed.
const ImageFallbackSummary = "[Image: summary unavailable]"

// fallbackPrefixChars bounds the degraded surrogate taken from raw content
// when a summarization batch fails.
const fallbackPrefixChars = 500

// ModelClient is the generative model surface the summarizer needs.
type ModelClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	DescribeImage(ctx context.Context, instruction, imageB64 string) (string, error)
}

// Summarizer generates surrogate summaries via a generative model.
type Summarizer struct {
	model ModelClient
	log   *slog.Logger
}

// New creates a Summarizer. A nil logger falls back to the default.
func New(model ModelClient, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{model: model, log: logger}
}

// SummarizeTexts summarizes text or table units. Units are processed in
// fixed-size batches of `concurrency`; each batch's calls run concurrently
// and the whole batch completes before the next starts, capping
// simultaneous external calls. If any call in a batch fails, every unit in
// that batch degrades to a bounded prefix of its raw content and processing
// continues. The result is length- and order-preserving: result[i] is
// derived solely from units[i].
func (s *Summarizer) SummarizeTexts(ctx context.Context, units []domain.ContentUnit, concurrency int) []domain.Surrogate {
	if len(units) == 0 {
		return nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	surrogates := make([]domain.Surrogate, 0, len(units))
	for start := 0; start < len(units); start += concurrency {
		end := start + concurrency
		if end > len(units) {
			end = len(units)
		}
		batch := units[start:end]
		results := make([]domain.Surrogate, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, unit := range batch {
			i, unit := i, unit
			g.Go(func() error {
				out, err := s.model.GenerateText(gctx, fmt.Sprintf(textPromptFormat, unit.Payload))
				if err != nil {
					return err
				}
				results[i] = domain.Surrogate{Text: out, SourceKind: unit.Kind}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			s.log.Warn("batch summarization failed, using truncated originals",
				"batch_start", start, "batch_size", len(batch), "error", err)
			for i, unit := range batch {
				results[i] = domain.Surrogate{
					Text:       truncateRunes(unit.Payload, fallbackPrefixChars),
					SourceKind: unit.Kind,
				}
			}
		}
		surrogates = append(surrogates, results...)
		s.log.Debug("summarized batch", "done", end, "total", len(units))
	}
	return surrogates
}

// SummarizeImages describes image units one call at a time; each call
// carries a full image payload, so batching would blow up request size. A
// failed call yields a fixed sentinel summary instead of aborting. The
// result is length- and order-preserving.
func (s *Summarizer) SummarizeImages(ctx context.Context, units []domain.ContentUnit) []domain.Surrogate {
	if len(units) == 0 {
		return nil
	}
	surrogates := make([]domain.Surrogate, 0, len(units))
	for i, unit := range units {
		out, err := s.model.DescribeImage(ctx, imageInstruction, unit.Payload)
		if err != nil {
			s.log.Warn("image summarization failed, using sentinel",
				"image", i+1, "total", len(units), "error", err)
			out = ImageFallbackSummary
		}
		surrogates = append(surrogates, domain.Surrogate{Text: out, SourceKind: unit.Kind})
	}
	return surrogates
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
