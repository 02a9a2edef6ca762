package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/studykit/studyrag-cli/internal/chunker"
	"github.com/studykit/studyrag-cli/internal/core/domain"
	"github.com/studykit/studyrag-cli/internal/core/ports/driven"
	"github.com/studykit/studyrag-cli/internal/core/ports/driving"
	"github.com/studykit/studyrag-cli/internal/logger"
)

// NoInfoAnswer is returned when retrieval found nothing to ground an
// answer on. Generation is skipped entirely in that case.
const NoInfoAnswer = "I couldn't find relevant information in the uploaded documents to answer your question."

// DefaultK is the number of chunks retrieved when the caller does not
// specify one.
const DefaultK = 5

// Ensure RAGService implements the interface.
var _ driving.RAGService = (*RAGService)(nil)

// RAGService orchestrates the ingestion and retrieval-augmented query
// pipeline over the driven ports.
type RAGService struct {
	chunker             *chunker.Chunker
	embedder            driven.EmbeddingService
	index               driven.VectorIndex
	generator           driven.GenerationService
	assembler           *ContextAssembler
	defaultK            int
	defaultLanguage     string
	defaultInstructions string
}

// RAGConfig wires the service dependencies.
type RAGConfig struct {
	Chunker   *chunker.Chunker
	Embedder  driven.EmbeddingService
	Index     driven.VectorIndex
	Generator driven.GenerationService
	Assembler *ContextAssembler

	// DefaultK is used when a query does not specify k (default: 5).
	DefaultK int

	// DefaultLanguage and DefaultInstructions are applied to augmented
	// queries when the caller passes none.
	DefaultLanguage     string
	DefaultInstructions string
}

// NewRAGService creates the orchestrator. Chunker and Assembler fall
// back to defaults when nil; the driven ports are required.
func NewRAGService(cfg RAGConfig) *RAGService {
	if cfg.Chunker == nil {
		cfg.Chunker = chunker.New()
	}
	if cfg.Assembler == nil {
		cfg.Assembler = NewContextAssembler(0)
	}
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = DefaultK
	}
	return &RAGService{
		chunker:             cfg.Chunker,
		embedder:            cfg.Embedder,
		index:               cfg.Index,
		generator:           cfg.Generator,
		assembler:           cfg.Assembler,
		defaultK:            cfg.DefaultK,
		defaultLanguage:     cfg.DefaultLanguage,
		defaultInstructions: cfg.DefaultInstructions,
	}
}

// Ingest chunks, embeds and indexes one document. The upsert is atomic,
// so a failure anywhere leaves prior index state untouched.
func (s *RAGService) Ingest(ctx context.Context, doc domain.Document) (*domain.IngestResult, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: document %q has no content", domain.ErrInvalidInput, doc.SourceName)
	}
	if doc.SourceName == "" {
		return nil, fmt.Errorf("%w: document has no source name", domain.ErrInvalidInput)
	}

	chunks := s.chunker.Split(doc)
	logger.Debug("Split %s into %d chunks", doc.SourceName, len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", doc.SourceName, err)
	}

	entries := make([]driven.IndexEntry, len(chunks))
	for i, c := range chunks {
		metadata := make(map[string]any, len(c.Metadata)+3)
		for k, v := range c.Metadata {
			metadata[k] = v
		}
		metadata[domain.MetaSource] = doc.SourceName
		metadata[domain.MetaFileName] = doc.SourceName
		metadata[domain.MetaChunkIndex] = c.Index

		entries[i] = driven.IndexEntry{
			ID:       fmt.Sprintf("%s_%d", doc.SourceName, c.Index),
			Vector:   vectors[i],
			Content:  c.Content,
			Metadata: metadata,
		}
	}

	if err := s.index.Upsert(ctx, entries); err != nil {
		return nil, fmt.Errorf("indexing %s: %w", doc.SourceName, err)
	}

	logger.Info("Ingested %s: %d chunks", doc.SourceName, len(entries))
	return &domain.IngestResult{
		DocumentID:  doc.ID,
		SourceName:  doc.SourceName,
		ChunksAdded: len(entries),
	}, nil
}

// Query runs retrieval only.
func (s *RAGService) Query(ctx context.Context, query string, k int) (*domain.RetrievalResult, error) {
	chunks, assembled, err := s.retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	return &domain.RetrievalResult{
		Query:   query,
		Context: assembled.Text,
		Sources: assembled.Sources,
		Chunks:  chunks,
		NFound:  len(chunks),
	}, nil
}

// AugmentedQuery runs retrieval then generation. Generation failures
// degrade to a retrieval-only outcome with a reason rather than failing
// the whole request.
func (s *RAGService) AugmentedQuery(ctx context.Context, query string, opts domain.AskOptions) (*domain.QueryOutcome, error) {
	chunks, assembled, err := s.retrieve(ctx, query, opts.K)
	if err != nil {
		return nil, err
	}

	outcome := &domain.QueryOutcome{
		Query:       query,
		ContextUsed: assembled.Text,
		Sources:     assembled.Sources,
		Chunks:      chunks,
		NFound:      len(chunks),
	}

	// Nothing retrieved: answer honestly without burning a generation call.
	if len(chunks) == 0 {
		outcome.Answer = NoInfoAnswer
		return outcome, nil
	}

	language := opts.Language
	if language == "" {
		language = s.defaultLanguage
	}
	instructions := opts.Instructions
	if instructions == "" {
		instructions = s.defaultInstructions
	}

	result, err := s.generator.GenerateAnswer(ctx, query, assembled.Text, driven.AnswerOptions{
		Model:        opts.Model,
		Language:     language,
		Instructions: instructions,
		Timeout:      opts.Timeout,
	})
	if err != nil {
		outcome.Degraded = true
		outcome.DegradedReason = degradedReason(err)
		logger.Info("Generation degraded: %v", err)
		return outcome, nil
	}

	outcome.Answer = result.Answer
	outcome.ModelUsed = result.ModelUsed
	return outcome, nil
}

// retrieve embeds the query and assembles attributed context from the
// nearest chunks.
func (s *RAGService) retrieve(ctx context.Context, query string, k int) ([]domain.RelevantChunk, domain.Context, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.Context{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = s.defaultK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domain.Context{}, fmt.Errorf("embedding query: %w", err)
	}

	chunks, err := s.index.Query(ctx, vector, k)
	if err != nil {
		return nil, domain.Context{}, fmt.Errorf("querying index: %w", err)
	}

	return chunks, s.assembler.Assemble(chunks), nil
}

// DeleteDocument removes all indexed chunks for a source name.
func (s *RAGService) DeleteDocument(ctx context.Context, sourceName string) (int, error) {
	if sourceName == "" {
		return 0, fmt.Errorf("%w: empty source name", domain.ErrInvalidInput)
	}

	removed, err := s.index.Delete(ctx, map[string]any{domain.MetaSource: sourceName})
	if err != nil {
		return 0, fmt.Errorf("deleting %s: %w", sourceName, err)
	}

	logger.Info("Deleted %s: %d chunks removed", sourceName, removed)
	return removed, nil
}

// ResetCollection drops all indexed entries.
func (s *RAGService) ResetCollection(ctx context.Context) error {
	if err := s.index.Reset(ctx); err != nil {
		return fmt.Errorf("resetting collection: %w", err)
	}
	return nil
}

// Stats reports the collection state and the generation backend status.
// An unreachable backend is reported as unavailable, never as an error.
func (s *RAGService) Stats(ctx context.Context) (*domain.Stats, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}

	stats := &domain.Stats{
		CollectionName: s.index.Collection(),
		EntryCount:     count,
		EmbeddingModel: s.embedder.ModelName(),
	}

	if s.generator != nil {
		stats.Generation.Model = s.generator.ModelName()
		if err := s.generator.Ping(ctx); err == nil {
			stats.Generation.IsAvailable = true
			if models, err := s.generator.ListModels(ctx); err == nil {
				stats.Generation.Models = models
			}
		}
	}

	return stats, nil
}

// degradedReason maps a generation failure to a short human-readable
// explanation for the degraded outcome.
func degradedReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "generation timed out"
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return "generation backend unavailable"
	default:
		return fmt.Sprintf("generation failed: %v", err)
	}
}
