// Package service orchestrates the ingestion and query pipelines over the
// partitioner, summarizer, dual-store index, and answer chain.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"multirag/internal/answer"
	"multirag/internal/domain"
	"multirag/internal/index"
	"multirag/internal/partition"
	"multirag/internal/registry"
	"multirag/internal/summarizer"
)

// Stats summarizes what one ingestion produced.
type Stats struct {
	Texts  int
	Tables int
	Images int
}

// Service drives the end-to-end pipeline for one interactive user.
type Service struct {
	partitioner  partition.Partitioner
	summarizer   *summarizer.Summarizer
	index        *index.Index
	chain        *answer.Chain
	registry     *registry.Registry
	docstorePath string
	concurrency  int
	log          *slog.Logger
}

// Config wires the service's collaborators.
type Config struct {
	Partitioner  partition.Partitioner
	Summarizer   *summarizer.Summarizer
	Index        *index.Index
	Chain        *answer.Chain
	Registry     *registry.Registry
	DocstorePath string
	Concurrency  int
	Logger       *slog.Logger
}

// New creates the pipeline service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Service{
		partitioner:  cfg.Partitioner,
		summarizer:   cfg.Summarizer,
		index:        cfg.Index,
		chain:        cfg.Chain,
		registry:     cfg.Registry,
		docstorePath: cfg.DocstorePath,
		concurrency:  concurrency,
		log:          logger,
	}
}

// AlreadyIngested reports whether the document was ingested before, so the
// caller can ask for re-index confirmation.
func (s *Service) AlreadyIngested(pdfPath string) bool {
	return s.registry.Has(filepath.Base(pdfPath))
}

// IngestedDocs lists the documents ingested so far.
func (s *Service) IngestedDocs() []string {
	return s.registry.Names()
}

// Ingest runs partition, separation, summarization, and indexing for one
// PDF, then records it in the registry. Per-unit summarization failures
// degrade quality but never abort; partitioning, embedding, and persistence
// failures are returned.
func (s *Service) Ingest(ctx context.Context, pdfPath string) (Stats, error) {
	s.log.Info("partitioning document", "path", pdfPath)
	elements, err := s.partitioner.Partition(ctx, pdfPath)
	if err != nil {
		return Stats{}, fmt.Errorf("partition %s: %w", pdfPath, err)
	}

	texts, tables, images := partition.Separate(elements)
	stats := Stats{Texts: len(texts), Tables: len(tables), Images: len(images)}
	s.log.Info("separated elements",
		"texts", stats.Texts, "tables", stats.Tables, "images", stats.Images)

	textUnits := domain.UnitsOf(domain.KindText, texts)
	tableUnits := domain.UnitsOf(domain.KindTable, tables)
	imageUnits := domain.UnitsOf(domain.KindImage, images)

	textSummaries := s.summarizer.SummarizeTexts(ctx, textUnits, s.concurrency)
	tableSummaries := s.summarizer.SummarizeTexts(ctx, tableUnits, s.concurrency)
	imageSummaries := s.summarizer.SummarizeImages(ctx, imageUnits)

	err = s.index.IndexAll(ctx, index.Batches{
		TextSummaries:  textSummaries,
		Texts:          textUnits,
		TableSummaries: tableSummaries,
		Tables:         tableUnits,
		ImageSummaries: imageSummaries,
		Images:         imageUnits,
	}, s.docstorePath)
	if err != nil {
		return stats, err
	}

	if err := s.registry.Add(filepath.Base(pdfPath)); err != nil {
		return stats, fmt.Errorf("record ingestion: %w", err)
	}
	s.log.Info("document ingested", "path", pdfPath)
	return stats, nil
}

// Ask answers a question over the indexed corpus.
func (s *Service) Ask(ctx context.Context, question string) (answer.Result, error) {
	return s.chain.Answer(ctx, question)
}
