// Package memory provides an in-memory VectorIndex. It mirrors the
// SQLite adapter's semantics (insertion-order tie-breaking, dimension
// checks, hard result cap) without persistence, and is the backend of
// choice for tests and throwaway sessions.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/studykit/studyrag-cli/internal/core/domain"
	"github.com/studykit/studyrag-cli/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*Index)(nil)

const defaultMaxResults = 20

type record struct {
	entry driven.IndexEntry
	seq   int64
}

// Index is a mutex-guarded in-memory vector collection.
type Index struct {
	mu         sync.RWMutex
	records    map[string]*record
	nextSeq    int64
	collection string
	dimensions int
	maxResults int
}

// New creates an empty in-memory index.
func New(collection string, dimensions int) *Index {
	return &Index{
		records:    make(map[string]*record),
		collection: collection,
		dimensions: dimensions,
		maxResults: defaultMaxResults,
	}
}

func (i *Index) Upsert(_ context.Context, entries []driven.IndexEntry) error {
	for _, e := range entries {
		if len(e.Vector) != i.dimensions {
			return fmt.Errorf("%w: entry %s has %d dimensions, collection expects %d",
				domain.ErrInvalidInput, e.ID, len(e.Vector), i.dimensions)
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	for _, e := range entries {
		if existing, ok := i.records[e.ID]; ok {
			existing.entry = e
			continue
		}
		i.nextSeq++
		i.records[e.ID] = &record{entry: e, seq: i.nextSeq}
	}
	return nil
}

func (i *Index) Query(_ context.Context, vector []float32, k int) ([]domain.RelevantChunk, error) {
	if len(vector) != i.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, collection expects %d",
			domain.ErrInvalidInput, len(vector), i.dimensions)
	}
	if k <= 0 {
		return []domain.RelevantChunk{}, nil
	}
	if k > i.maxResults {
		k = i.maxResults
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	type scored struct {
		chunk domain.RelevantChunk
		seq   int64
	}
	hits := make([]scored, 0, len(i.records))
	for _, r := range i.records {
		hits = append(hits, scored{
			chunk: domain.RelevantChunk{
				Content:  r.entry.Content,
				Metadata: r.entry.Metadata,
				Distance: cosineDistance(vector, r.entry.Vector),
			},
			seq: r.seq,
		})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].chunk.Distance != hits[b].chunk.Distance {
			return hits[a].chunk.Distance < hits[b].chunk.Distance
		}
		return hits[a].seq < hits[b].seq
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	results := make([]domain.RelevantChunk, len(hits))
	for idx, h := range hits {
		results[idx] = h.chunk
	}
	return results, nil
}

func (i *Index) Delete(_ context.Context, filter map[string]any) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: empty delete filter", domain.ErrInvalidInput)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	removed := 0
	for id, r := range i.records {
		if metadataMatches(r.entry.Metadata, filter) {
			delete(i.records, id)
			removed++
		}
	}
	return removed, nil
}

func (i *Index) Count(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.records), nil
}

func (i *Index) Reset(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.records = make(map[string]*record)
	i.nextSeq = 0
	return nil
}

func (i *Index) Collection() string { return i.collection }

func (i *Index) Close() error { return nil }

func metadataMatches(metadata, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
