package domain

import "time"

// RelevantChunk is a single retrieval hit: chunk text, carried metadata
// and cosine distance to the query (lower is more similar).
type RelevantChunk struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Distance float64        `json:"distance"`
}

// FileName returns the source attribution label for the chunk.
func (c RelevantChunk) FileName() string {
	if name, ok := c.Metadata[MetaFileName].(string); ok && name != "" {
		return name
	}
	return "Unknown"
}

// Context is assembled retrieval context: the bounded, attributed text
// passed to generation plus the deduplicated contributing sources in
// order of first appearance. It is recomputed per query, never persisted.
type Context struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources"`
}

// IngestResult reports the outcome of a single document ingestion.
// It is deliberately separate from any storage outcome so callers can
// surface a partial success instead of silently swallowing it.
type IngestResult struct {
	DocumentID  string `json:"document_id"`
	SourceName  string `json:"source_name"`
	ChunksAdded int    `json:"chunks_added"`
}

// Added reports whether any entries landed in the index.
func (r IngestResult) Added() bool { return r.ChunksAdded > 0 }

// RetrievalResult is the terminal outcome of a retrieval-only query.
type RetrievalResult struct {
	Query   string          `json:"query"`
	Context string          `json:"context"`
	Sources []string        `json:"sources"`
	Chunks  []RelevantChunk `json:"relevant_chunks"`
	NFound  int             `json:"n_chunks_found"`
}

// AskOptions configures an augmented query.
type AskOptions struct {
	// K is the number of chunks to retrieve (bounded by the configured
	// hard maximum).
	K int

	// Model overrides the default generation model when non-empty.
	Model string

	// Language asks for the answer in a specific language. Empty or
	// "auto" leaves the choice to the model.
	Language string

	// Instructions are caller-supplied tone or formatting directives
	// appended to the prompt.
	Instructions string

	// Timeout bounds the whole generation call, stream consumption
	// included. Zero uses the configured default.
	Timeout time.Duration
}

// QueryOutcome is the terminal outcome of an augmented query. When
// generation could not complete the outcome is degraded: retrieval
// fields are still populated and DegradedReason explains why there is
// no generated answer.
type QueryOutcome struct {
	Query          string          `json:"query"`
	Answer         string          `json:"answer,omitempty"`
	ContextUsed    string          `json:"context_used"`
	Sources        []string        `json:"sources"`
	Chunks         []RelevantChunk `json:"relevant_chunks"`
	NFound         int             `json:"n_chunks_found"`
	ModelUsed      string          `json:"model_used,omitempty"`
	Degraded       bool            `json:"degraded,omitempty"`
	DegradedReason string          `json:"degraded_reason,omitempty"`
}

// GenerationStats describes the generation backend: the configured
// model, whether the backend answered a ping and, when it did, the
// models it advertises.
type GenerationStats struct {
	Model       string   `json:"model"`
	IsAvailable bool     `json:"is_available"`
	Models      []string `json:"models,omitempty"`
}

// Stats describes the indexed collection.
type Stats struct {
	CollectionName string          `json:"collection_name"`
	EntryCount     int             `json:"entry_count"`
	EmbeddingModel string          `json:"embedding_model"`
	Generation     GenerationStats `json:"generation"`
}
