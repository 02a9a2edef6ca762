// Package chunker splits normalised document text into overlapping,
// bounded-size chunks for embedding and retrieval.
package chunker

import (
	"strings"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk core.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters
// shared between adjacent chunks.
const DefaultChunkOverlap = 200

// separators are tried highest priority first when choosing a split
// point: paragraph break, line break, word boundary. When none applies
// the chunker falls back to a fixed-width cut.
var separators = []string{"\n\n", "\n", " "}

// Chunker splits text deterministically: the same text and
// configuration always yield the same chunk sequence, and the
// concatenation of chunk cores reconstructs the input exactly.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk core size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for forward progress
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured maximum core size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks the document content. Each chunk core covers
// [Start, End) of the original text; the chunk content additionally
// carries up to overlap characters of the preceding core so retrieval
// keeps cross-boundary context. Document metadata is carried onto every
// chunk.
func (c *Chunker) Split(doc domain.Document) []domain.Chunk {
	text := doc.Content
	if text == "" {
		return nil
	}

	chunks := make([]domain.Chunk, 0, len(text)/(c.chunkSize-c.overlap)+1)

	start := 0
	for start < len(text) {
		end := c.cut(text, start)

		contentStart := start - c.overlap
		if contentStart < 0 {
			contentStart = 0
		}

		chunks = append(chunks, domain.Chunk{
			DocumentID: doc.ID,
			Index:      len(chunks),
			Content:    text[contentStart:end],
			Start:      start,
			End:        end,
			Metadata:   copyMetadata(doc.Metadata),
		})

		start = end
	}

	return chunks
}

// cut chooses the end of the core starting at start: the remainder if
// it fits, otherwise the last occurrence of the highest-priority
// separator inside the size window, otherwise a fixed-width cut.
func (c *Chunker) cut(text string, start int) int {
	limit := start + c.chunkSize
	if limit >= len(text) {
		return len(text)
	}

	window := text[start:limit]
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			end := start + idx + len(sep)
			if end > start {
				return end
			}
		}
	}

	return limit
}

// copyMetadata creates a shallow copy of metadata.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
