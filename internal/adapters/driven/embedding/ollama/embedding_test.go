package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

// fakeOllama serves /api/embeddings returning a deterministic vector
// derived from the prompt length.
func fakeOllama(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/embeddings":
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			vec := make([]float64, dims)
			for i := range vec {
				vec[i] = float64(len(req.Prompt)%7) + float64(i)
			}
			json.NewEncoder(w).Encode(embedResponse{Embedding: vec})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestEmbed(t *testing.T) {
	srv := fakeOllama(t, 8)
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 8})

	vec, err := s.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, vec, 8)
}

func TestEmbed_Deterministic(t *testing.T) {
	srv := fakeOllama(t, 8)
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 8})

	first, err := s.Embed(context.Background(), "same text")
	require.NoError(t, err)
	second, err := s.Embed(context.Background(), "same text")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	srv := fakeOllama(t, 4)
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 8})

	_, err := s.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestEmbed_BackendUnreachable(t *testing.T) {
	s := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1", Dimensions: 8})

	_, err := s.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestEmbed_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 8})

	_, err := s.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestEmbedBatch_OrderPreserving(t *testing.T) {
	srv := fakeOllama(t, 8)
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 8, RequestsPerSecond: 1000})

	texts := []string{"a", "bb", "ccc", "dddd"}
	vectors, err := s.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	for i, text := range texts {
		want, err := s.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, want, vectors[i], "vector %d out of order", i)
	}
}

func TestEmbedBatch_Empty(t *testing.T) {
	srv := fakeOllama(t, 8)
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 8})

	vectors, err := s.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestPing(t *testing.T) {
	srv := fakeOllama(t, 8)
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	assert.NoError(t, s.Ping(context.Background()))

	down := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, down.Ping(context.Background()))
}
