package domain

// Metadata keys carried on every indexed chunk.
// These form the contract between ingestion and delete-by-filter.
const (
	// MetaSource is the full origin path or URI of the document.
	MetaSource = "source"

	// MetaFileName is the display name used for source attribution.
	MetaFileName = "file_name"

	// MetaChunkIndex is the 0-based ordinal of the chunk within its document.
	MetaChunkIndex = "chunk_index"
)

// Document is a normalised text document handed to the ingestion pipeline.
// It is created at ingestion time and never persisted by the core.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceName is the stable display name (usually the file name).
	// It keys source attribution and delete-by-source.
	SourceName string

	// Content is the full normalised text.
	Content string

	// Metadata contains arbitrary provenance key-value pairs.
	Metadata map[string]any
}

// Chunk is a bounded-size span of a document's text, the unit of
// embedding and retrieval. Chunks are immutable once produced and are
// never reordered or merged.
type Chunk struct {
	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the 0-based ordinal within the document. Indices are
	// monotonically increasing and gapless.
	Index int

	// Content is the chunk text including any leading overlap shared
	// with the previous chunk.
	Content string

	// Start and End delimit the chunk core (the non-overlapping span)
	// as byte offsets into the original document text. Concatenating
	// all cores in order reconstructs the document exactly.
	Start int
	End   int

	// Metadata contains carried provenance key-value pairs.
	Metadata map[string]any
}

// Core returns the non-overlapping span of the chunk.
func (c Chunk) Core() string {
	overlap := len(c.Content) - (c.End - c.Start)
	if overlap < 0 || overlap > len(c.Content) {
		return c.Content
	}
	return c.Content[overlap:]
}

// RawFile is an uploaded file before parsing. The core never inspects
// the bytes itself; a Parser converts them to normalised text.
type RawFile struct {
	// Name is the original file name, extension included.
	Name string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains loader-supplied key-value pairs.
	Metadata map[string]any
}
