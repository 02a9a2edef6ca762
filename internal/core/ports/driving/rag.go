package driving

import (
	"context"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

// RAGService exposes the ingestion and retrieval-augmented query
// pipeline to callers (CLI, TUI, MCP server).
type RAGService interface {
	// Ingest chunks, embeds and indexes a normalised document. It
	// reports how many entries were added; embedding or parse failures
	// abort only this document and leave prior index state untouched.
	Ingest(ctx context.Context, doc domain.Document) (*domain.IngestResult, error)

	// Query runs retrieval only: embed the query, find the k nearest
	// chunks and assemble bounded, attributed context.
	Query(ctx context.Context, query string, k int) (*domain.RetrievalResult, error)

	// AugmentedQuery runs the full pipeline including generation.
	// Generation failures degrade to a retrieval-only outcome with a
	// reason instead of failing the request.
	AugmentedQuery(ctx context.Context, query string, opts domain.AskOptions) (*domain.QueryOutcome, error)

	// DeleteDocument removes all indexed chunks for a source name and
	// returns the count removed.
	DeleteDocument(ctx context.Context, sourceName string) (int, error)

	// ResetCollection drops and recreates the collection.
	ResetCollection(ctx context.Context) error

	// Stats reports collection name, entry count, embedding model and
	// generation backend status.
	Stats(ctx context.Context) (*domain.Stats, error)
}
