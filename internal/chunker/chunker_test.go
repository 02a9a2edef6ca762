package chunker

import (
	"strings"
	"testing"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, c.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		c := New(WithChunkSize(500))
		if c.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", c.chunkSize)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(150))
		if c.overlap >= c.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", c.overlap)
		}
	})
}

func TestSplit_EmptyContent(t *testing.T) {
	c := New()
	chunks := c.Split(domain.Document{ID: "doc", Content: ""})
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestSplit_SmallContent(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	doc := domain.Document{ID: "doc", Content: "This is a small piece of content."}

	chunks := c.Split(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small content, got %d", len(chunks))
	}
	if chunks[0].Content != doc.Content {
		t.Errorf("expected content to match document content")
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
	if chunks[0].Start != 0 || chunks[0].End != len(doc.Content) {
		t.Errorf("expected core [0,%d), got [%d,%d)", len(doc.Content), chunks[0].Start, chunks[0].End)
	}
}

func TestSplit_PrefersParagraphBreaks(t *testing.T) {
	text := strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 40) + "\n\n" + strings.Repeat("c", 40)
	c := New(WithChunkSize(60), WithOverlap(0))

	chunks := c.Split(domain.Document{ID: "doc", Content: text})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// First core should end right after the paragraph break, not mid-word.
	if !strings.HasSuffix(chunks[0].Content, "\n\n") {
		t.Errorf("expected first chunk to end at paragraph break, got %q", chunks[0].Content)
	}
}

func TestSplit_FallsBackToWordBoundary(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	c := New(WithChunkSize(20), WithOverlap(0))

	chunks := c.Split(domain.Document{ID: "doc", Content: text})
	for i, ch := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(ch.Content, " ") {
			t.Errorf("chunk %d should end on a word boundary, got %q", i, ch.Content)
		}
	}
}

func TestSplit_FixedWidthFallback(t *testing.T) {
	text := strings.Repeat("x", 95)
	c := New(WithChunkSize(30), WithOverlap(0))

	chunks := c.Split(domain.Document{ID: "doc", Content: text})
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.End-ch.Start > 30 {
			t.Errorf("chunk %d core exceeds max size: %d", i, ch.End-ch.Start)
		}
	}
}

func TestSplit_Reconstruction(t *testing.T) {
	texts := []string{
		"short text",
		strings.Repeat("word boundary splitting test case ", 50),
		strings.Repeat("para one.\n\npara two.\n\npara three.\n", 30),
		strings.Repeat("z", 1234),
	}

	for _, text := range texts {
		c := New(WithChunkSize(100), WithOverlap(25))
		chunks := c.Split(domain.Document{ID: "doc", Content: text})

		var rebuilt strings.Builder
		for _, ch := range chunks {
			rebuilt.WriteString(ch.Core())
		}
		if rebuilt.String() != text {
			t.Errorf("concatenated cores do not reconstruct input (len %d vs %d)",
				rebuilt.Len(), len(text))
		}
	}
}

func TestSplit_OverlapBetweenChunks(t *testing.T) {
	text := strings.Repeat("overlap test content words here ", 40)
	c := New(WithChunkSize(100), WithOverlap(25))

	chunks := c.Split(domain.Document{ID: "doc", Content: text})
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if cur.Start != prev.End {
			t.Errorf("cores must be gapless: chunk %d starts at %d, previous ends at %d",
				i, cur.Start, prev.End)
		}
		wantOverlap := 25
		if cur.Start < wantOverlap {
			wantOverlap = cur.Start
		}
		gotOverlap := len(cur.Content) - (cur.End - cur.Start)
		if gotOverlap != wantOverlap {
			t.Errorf("chunk %d overlap = %d, want %d", i, gotOverlap, wantOverlap)
		}
		// The overlap span must equal the tail of the previous core region.
		if cur.Content[:gotOverlap] != text[cur.Start-gotOverlap:cur.Start] {
			t.Errorf("chunk %d overlap content mismatch", i)
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("determinism check sentence.\n", 60)
	c := New(WithChunkSize(120), WithOverlap(30))
	doc := domain.Document{ID: "doc", Content: text}

	first := c.Split(doc)
	second := c.Split(doc)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content != second[i].Content || first[i].Start != second[i].Start {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplit_CarriesMetadata(t *testing.T) {
	c := New(WithChunkSize(50), WithOverlap(10))
	doc := domain.Document{
		ID:       "doc",
		Content:  strings.Repeat("metadata carry ", 20),
		Metadata: map[string]any{"loader": "plaintext"},
	}

	chunks := c.Split(doc)
	for i, ch := range chunks {
		if ch.Metadata["loader"] != "plaintext" {
			t.Errorf("chunk %d lost document metadata", i)
		}
		if ch.Index != i {
			t.Errorf("chunk index %d, want %d", ch.Index, i)
		}
	}
}
