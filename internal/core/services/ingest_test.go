package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studykit/studyrag-cli/internal/adapters/driven/filestore/local"
	"github.com/studykit/studyrag-cli/internal/adapters/driven/index/memory"
	"github.com/studykit/studyrag-cli/internal/core/domain"
)

func newTestIngest(t *testing.T) (*IngestService, *RAGService, *local.Store) {
	t.Helper()
	store, err := local.New(local.Config{Dir: t.TempDir()})
	require.NoError(t, err)

	rag := NewRAGService(RAGConfig{
		Embedder:  &fakeEmbedder{},
		Index:     memory.New("study_documents", 3),
		Generator: &fakeGenerator{},
	})
	return NewIngestService(store, nil, rag), rag, store
}

func TestIngestFile(t *testing.T) {
	svc, rag, store := newTestIngest(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Photosynthesis converts light into energy."), 0600))

	result, err := svc.IngestFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", result.SourceName)
	assert.True(t, result.Added())

	// Stored and indexed.
	files, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)

	stats, err := rag.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.ChunksAdded, stats.EntryCount)
}

func TestIngestBytes_PolicyViolationNeverReachesIndex(t *testing.T) {
	svc, rag, _ := newTestIngest(t)
	ctx := context.Background()

	_, err := svc.IngestBytes(ctx, "binary.exe", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	stats, err := rag.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.EntryCount)
}

func TestIngestBytes_ParseFailureRollsBackStoredCopy(t *testing.T) {
	svc, _, store := newTestIngest(t)
	ctx := context.Background()

	// Invalid UTF-8 fails the plain text parser after the store accepted it.
	_, err := svc.IngestBytes(ctx, "broken.txt", []byte{0xff, 0xfe, 0xfd})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrParse)

	files, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRemove(t *testing.T) {
	svc, rag, store := newTestIngest(t)
	ctx := context.Background()

	result, err := svc.IngestBytes(ctx, "notes.txt", []byte("Mitochondria produce ATP."))
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, result.ChunksAdded, removed)

	files, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)

	stats, err := rag.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.EntryCount)
}

func TestReingest(t *testing.T) {
	svc, rag, _ := newTestIngest(t)
	ctx := context.Background()

	first, err := svc.IngestBytes(ctx, "notes.txt", []byte("version one"))
	require.NoError(t, err)

	second, err := svc.Reingest(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, first.SourceName, second.SourceName)

	stats, err := rag.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ChunksAdded, stats.EntryCount, "reingest must not duplicate entries")
}
