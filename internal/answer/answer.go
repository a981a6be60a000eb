// Package answer assembles a multimodal prompt from retrieved content and
// produces a grounded answer with its sources.
package answer

import (
	"context"
	"fmt"
	"strings"

	"multirag/internal/retriever"
)

const instructionHeader = "You are a knowledgeable assistant. Answer the user's question using ONLY " +
	"the provided context (text, tables, and images). If the context does not " +
	"contain the answer, say so honestly.\n\n"

// Generator is the multimodal completion surface the chain needs.
type Generator interface {
	GenerateMultimodal(ctx context.Context, text string, imagesB64 []string) (string, error)
}

// Fetcher retrieves original content for a question.
type Fetcher interface {
	Fetch(ctx context.Context, query string) (retriever.Results, error)
}

// Result carries the answer plus the grounding material shown to the user.
type Result struct {
	Answer     string
	Sources    []string
	ImageCount int
}

// Chain is the question-to-answer pipeline: retrieve, build prompt, generate.
type Chain struct {
	fetcher Fetcher
	model   Generator
}

// New creates an answer chain.
func New(fetcher Fetcher, model Generator) *Chain {
	return &Chain{fetcher: fetcher, model: model}
}

// Answer retrieves context for the question and generates a grounded
// answer. Text context goes into the prompt body; images are attached as
// inline parts.
func (c *Chain) Answer(ctx context.Context, question string) (Result, error) {
	res, err := c.fetcher.Fetch(ctx, question)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve context: %w", err)
	}

	prompt := buildPrompt(res.Texts, question)
	out, err := c.model.GenerateMultimodal(ctx, prompt, res.Images)
	if err != nil {
		return Result{}, fmt.Errorf("generate answer: %w", err)
	}

	return Result{
		Answer:     strings.TrimSpace(out),
		Sources:    res.Texts,
		ImageCount: len(res.Images),
	}, nil
}

func buildPrompt(texts []string, question string) string {
	var b strings.Builder
	b.WriteString(instructionHeader)
	if len(texts) > 0 {
		b.WriteString("CONTEXT:\n")
		b.WriteString(strings.Join(texts, "\n\n---\n\n"))
		b.WriteString("\n\n")
	}
	b.WriteString("QUESTION:\n")
	b.WriteString(question)
	return b.String()
}
