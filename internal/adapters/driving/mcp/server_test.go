package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

// fakeRAG is a scriptable RAGService for handler tests.
type fakeRAG struct {
	retrieval *domain.RetrievalResult
	outcome   *domain.QueryOutcome
	stats     *domain.Stats
	err       error
}

func (f *fakeRAG) Ingest(context.Context, domain.Document) (*domain.IngestResult, error) {
	return nil, nil
}

func (f *fakeRAG) Query(context.Context, string, int) (*domain.RetrievalResult, error) {
	return f.retrieval, f.err
}

func (f *fakeRAG) AugmentedQuery(context.Context, string, domain.AskOptions) (*domain.QueryOutcome, error) {
	return f.outcome, f.err
}

func (f *fakeRAG) DeleteDocument(context.Context, string) (int, error) { return 0, nil }
func (f *fakeRAG) ResetCollection(context.Context) error               { return nil }
func (f *fakeRAG) Stats(context.Context) (*domain.Stats, error)        { return f.stats, f.err }

func TestNewServer(t *testing.T) {
	s, err := NewServer(&Ports{RAG: &fakeRAG{}}, "1.2.3")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNewServer_RequiresRAGService(t *testing.T) {
	_, err := NewServer(&Ports{}, "test")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRAGService)
}

func TestHandleQuery(t *testing.T) {
	rag := &fakeRAG{retrieval: &domain.RetrievalResult{
		Query:   "q",
		Context: "[Source 1: a.txt]\ntext",
		Sources: []string{"a.txt"},
		Chunks: []domain.RelevantChunk{{
			Content:  "text",
			Metadata: map[string]any{domain.MetaFileName: "a.txt"},
			Distance: 0.1,
		}},
		NFound: 1,
	}}
	s, err := NewServer(&Ports{RAG: rag}, "test")
	require.NoError(t, err)

	_, out, err := s.handleQuery(context.Background(), nil, QueryInput{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, []string{"a.txt"}, out.Sources)
	require.Len(t, out.Chunks, 1)
	assert.Equal(t, "a.txt", out.Chunks[0].Source)
	assert.InDelta(t, 0.1, out.Chunks[0].Distance, 1e-9)
}

func TestHandleAsk(t *testing.T) {
	rag := &fakeRAG{outcome: &domain.QueryOutcome{
		Answer:    "the answer",
		Sources:   []string{"a.txt"},
		NFound:    2,
		ModelUsed: "llama3.2",
	}}
	s, err := NewServer(&Ports{RAG: rag}, "test")
	require.NoError(t, err)

	_, out, err := s.handleAsk(context.Background(), nil, AskInput{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", out.Answer)
	assert.Equal(t, "llama3.2", out.ModelUsed)
	assert.False(t, out.Degraded)
	assert.Empty(t, out.Context, "context is omitted when an answer exists")
}

func TestHandleAsk_DegradedIncludesContext(t *testing.T) {
	rag := &fakeRAG{outcome: &domain.QueryOutcome{
		ContextUsed:    "[Source 1: a.txt]\ntext",
		Sources:        []string{"a.txt"},
		NFound:         1,
		Degraded:       true,
		DegradedReason: "generation backend unavailable",
	}}
	s, err := NewServer(&Ports{RAG: rag}, "test")
	require.NoError(t, err)

	_, out, err := s.handleAsk(context.Background(), nil, AskInput{Question: "q"})
	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.Equal(t, "generation backend unavailable", out.DegradedReason)
	assert.Equal(t, "[Source 1: a.txt]\ntext", out.Context)
}

func TestHandleStatsResource_IncludesGenerationStatus(t *testing.T) {
	rag := &fakeRAG{stats: &domain.Stats{
		CollectionName: "study_documents",
		EntryCount:     3,
		EmbeddingModel: "nomic-embed-text",
		Generation: domain.GenerationStats{
			Model:       "llama3.2",
			IsAvailable: true,
			Models:      []string{"llama3.2", "mistral"},
		},
	}}
	s, err := NewServer(&Ports{RAG: rag}, "test")
	require.NoError(t, err)

	req := &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "studyrag://stats"}}
	res, err := s.handleStatsResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, `"is_available": true`)
	assert.Contains(t, res.Contents[0].Text, "mistral")
}

func TestExtractDocumentName(t *testing.T) {
	assert.Equal(t, "notes.txt", extractDocumentName("studyrag://documents/notes.txt"))
	assert.Empty(t, extractDocumentName("studyrag://stats"))
	assert.Empty(t, extractDocumentName("other://documents/notes.txt"))
}
