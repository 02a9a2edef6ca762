// Package parsers converts uploaded file bytes into normalised text.
// A registry dispatches on the file extension; unknown extensions fall
// back to the plain text parser so the pipeline never branches on
// format itself.
package parsers

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/studykit/studyrag-cli/internal/core/domain"
	"github.com/studykit/studyrag-cli/internal/core/ports/driven"
)

// Registry maps normalised file extensions to parsers.
type Registry struct {
	byExt    map[string]driven.Parser
	fallback driven.Parser
}

// NewRegistry creates a registry with the given fallback parser.
func NewRegistry(fallback driven.Parser) *Registry {
	return &Registry{
		byExt:    make(map[string]driven.Parser),
		fallback: fallback,
	}
}

// Default returns a registry with the built-in parsers registered and
// plain text as the fallback.
func Default() *Registry {
	r := NewRegistry(NewPlainText())
	r.Register(NewPlainText())
	r.Register(NewMarkdown())
	return r
}

// Register adds a parser for each extension it reports.
func (r *Registry) Register(p driven.Parser) {
	for _, ext := range p.Extensions() {
		r.byExt[normaliseExt(ext)] = p
	}
}

// For returns the parser responsible for the given file name.
func (r *Registry) For(name string) driven.Parser {
	if p, ok := r.byExt[normaliseExt(filepath.Ext(name))]; ok {
		return p
	}
	return r.fallback
}

// Parse converts the raw file to normalised text using the parser
// registered for its extension.
func (r *Registry) Parse(ctx context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	return r.For(raw.Name).Parse(ctx, raw)
}

// normaliseExt lower-cases and ensures a leading dot.
func normaliseExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
