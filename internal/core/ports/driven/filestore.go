package driven

import "context"

// FileInfo describes a stored upload.
type FileInfo struct {
	Name string
	Size int64
}

// FileStore persists uploaded document bytes and enforces the size and
// extension policy. Storage outcome is independent of ingestion outcome;
// a file can land here and still fail to index.
type FileStore interface {
	// Save writes the file and returns its storage path. Policy
	// violations wrap domain.ErrUnsupportedType or domain.ErrFileTooLarge.
	Save(ctx context.Context, name string, content []byte) (string, error)

	// Read returns the stored bytes for name.
	Read(ctx context.Context, name string) ([]byte, error)

	// Delete removes a stored file. Missing files wrap domain.ErrNotFound.
	Delete(ctx context.Context, name string) error

	// List enumerates stored files.
	List(ctx context.Context) ([]FileInfo, error)
}
