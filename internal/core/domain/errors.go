package domain

import "errors"

// Domain errors represent pipeline failures. Adapters wrap these
// sentinels so the orchestrator can classify failures with errors.Is.
var (
	// ErrInvalidInput indicates malformed input to an entry point.
	ErrInvalidInput = errors.New("invalid input")

	// ErrParse indicates document bytes could not be converted to text.
	// It aborts only the affected document's ingestion.
	ErrParse = errors.New("document parse failed")

	// ErrEmbedding indicates the embedding model is unavailable or
	// returned a vector of unexpected dimension.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndex indicates the vector store is unreachable or corrupted.
	ErrIndex = errors.New("vector index failure")

	// ErrGenerationUnavailable indicates the generation backend is
	// unreachable. Augmented queries degrade to retrieval-only.
	ErrGenerationUnavailable = errors.New("generation backend unavailable")

	// ErrGeneration indicates the backend was reachable but returned an
	// error, an unparsable stream, or an empty answer.
	ErrGeneration = errors.New("generation failed")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedType indicates a file extension outside the
	// configured allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates an upload beyond the size limit.
	ErrFileTooLarge = errors.New("file too large")
)
