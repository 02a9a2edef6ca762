package parsers

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/studykit/studyrag-cli/internal/core/domain"
	"github.com/studykit/studyrag-cli/internal/core/ports/driven"
)

// Ensure PlainText implements the interface.
var _ driven.Parser = (*PlainText)(nil)

// PlainText handles plain text documents and serves as the fallback
// for unknown extensions.
type PlainText struct{}

// NewPlainText creates a new plain text parser.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// Extensions returns the extensions this parser handles.
func (p *PlainText) Extensions() []string {
	return []string{".txt", ".text", ".log", ".csv"}
}

// Parse converts raw bytes to normalised text: valid UTF-8 with Unix
// line endings.
func (p *PlainText) Parse(_ context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrParse, raw.Name)
	}
	return normaliseText(string(raw.Content)), nil
}

// normaliseText converts Windows and old Mac line endings to Unix ones
// without dropping content.
func normaliseText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}
