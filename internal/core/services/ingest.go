package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/studykit/studyrag-cli/internal/core/domain"
	"github.com/studykit/studyrag-cli/internal/core/ports/driven"
	"github.com/studykit/studyrag-cli/internal/core/ports/driving"
	"github.com/studykit/studyrag-cli/internal/parsers"
)

// IngestService turns uploaded files into indexed documents: policy
// check and storage via the file store, parsing via the registry, then
// the chunk/embed/index pipeline. Storage outcome is independent of
// ingestion outcome; a file can land in the store and still fail to
// index, and the caller sees both.
type IngestService struct {
	store   driven.FileStore
	parsers *parsers.Registry
	rag     driving.RAGService
}

// NewIngestService wires the file ingestion pipeline.
func NewIngestService(store driven.FileStore, registry *parsers.Registry, rag driving.RAGService) *IngestService {
	if registry == nil {
		registry = parsers.Default()
	}
	return &IngestService{store: store, parsers: registry, rag: rag}
}

// IngestFile reads a file from disk and ingests it under its base name.
func (s *IngestService) IngestFile(ctx context.Context, path string) (*domain.IngestResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s.IngestBytes(ctx, filepath.Base(path), content)
}

// IngestBytes stores and ingests an in-memory upload. The stored copy
// is removed again if parsing or indexing fails, so the store only
// holds files that made it into the index.
func (s *IngestService) IngestBytes(ctx context.Context, name string, content []byte) (*domain.IngestResult, error) {
	if _, err := s.store.Save(ctx, name, content); err != nil {
		return nil, err
	}

	result, err := s.ingestStored(ctx, name, content)
	if err != nil {
		// Best effort rollback; the original error is the one that matters.
		_ = s.store.Delete(ctx, name)
		return nil, err
	}
	return result, nil
}

// Reingest re-parses and re-indexes an already stored file, used by the
// uploads watcher when a file changes in place.
func (s *IngestService) Reingest(ctx context.Context, name string) (*domain.IngestResult, error) {
	content, err := s.store.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.ingestStored(ctx, name, content)
}

// Remove deletes a stored file and its indexed chunks.
func (s *IngestService) Remove(ctx context.Context, name string) (int, error) {
	removed, err := s.rag.DeleteDocument(ctx, filepath.Base(name))
	if err != nil {
		return 0, err
	}
	if err := s.store.Delete(ctx, name); err != nil && !isNotFound(err) {
		return removed, err
	}
	return removed, nil
}

// List enumerates stored uploads.
func (s *IngestService) List(ctx context.Context) ([]driven.FileInfo, error) {
	return s.store.List(ctx)
}

// Read returns the raw stored bytes of an upload.
func (s *IngestService) Read(ctx context.Context, name string) ([]byte, error) {
	return s.store.Read(ctx, name)
}

func (s *IngestService) ingestStored(ctx context.Context, name string, content []byte) (*domain.IngestResult, error) {
	text, err := s.parsers.Parse(ctx, &domain.RawFile{Name: name, Content: content})
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	doc := domain.Document{
		ID:         uuid.NewString(),
		SourceName: filepath.Base(name),
		Content:    text,
	}
	return s.rag.Ingest(ctx, doc)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
