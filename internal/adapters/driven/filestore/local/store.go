// Package local stores uploaded documents as plain files in an uploads
// directory and enforces the size and extension policy before anything
// touches the index.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/studykit/studyrag-cli/internal/core/domain"
	"github.com/studykit/studyrag-cli/internal/core/ports/driven"
	"github.com/studykit/studyrag-cli/internal/logger"
)

var _ driven.FileStore = (*Store)(nil)

// DefaultMaxFileSize caps uploads at 10 MiB.
const DefaultMaxFileSize = 10 << 20

// DefaultAllowedExtensions is the upload whitelist.
var DefaultAllowedExtensions = []string{".txt", ".text", ".log", ".csv", ".md", ".markdown"}

// Config holds configuration for the local file store.
type Config struct {
	// Dir is the uploads directory. Empty defaults to ~/.studyrag/uploads.
	Dir string

	// MaxFileSize is the per-file byte limit (default: 10 MiB).
	MaxFileSize int64

	// AllowedExtensions whitelists file types (lower case, leading dot).
	AllowedExtensions []string
}

// Store is a directory-backed FileStore.
type Store struct {
	dir     string
	maxSize int64
	allowed map[string]struct{}
}

// New creates the uploads directory if needed and returns the store.
func New(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		cfg.Dir = filepath.Join(home, ".studyrag", "uploads")
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = DefaultAllowedExtensions
	}

	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}

	return &Store{dir: cfg.Dir, maxSize: cfg.MaxFileSize, allowed: allowed}, nil
}

// Dir returns the uploads directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Save validates the upload policy and writes the file, returning its
// storage path.
func (s *Store) Save(_ context.Context, name string, content []byte) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", fmt.Errorf("%w: invalid file name %q", domain.ErrInvalidInput, name)
	}

	ext := strings.ToLower(filepath.Ext(base))
	if _, ok := s.allowed[ext]; !ok {
		return "", fmt.Errorf("%w: extension %q is not allowed", domain.ErrUnsupportedType, ext)
	}
	if int64(len(content)) > s.maxSize {
		return "", fmt.Errorf("%w: %s is %d bytes, limit is %d",
			domain.ErrFileTooLarge, base, len(content), s.maxSize)
	}

	path := filepath.Join(s.dir, base)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("writing %s: %w", base, err)
	}

	logger.Debug("Saved upload %s (%d bytes)", base, len(content))
	return path, nil
}

// Read returns the stored bytes for name.
func (s *Store) Read(_ context.Context, name string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return content, nil
}

// Delete removes a stored file.
func (s *Store) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	return nil
}

// List enumerates stored files, skipping subdirectories and hidden files.
func (s *Store) List(_ context.Context) ([]driven.FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing uploads: %w", err)
	}

	var files []driven.FileInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, driven.FileInfo{Name: entry.Name(), Size: info.Size()})
	}
	return files, nil
}
