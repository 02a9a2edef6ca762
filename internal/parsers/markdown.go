package parsers

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/studykit/studyrag-cli/internal/core/domain"
	"github.com/studykit/studyrag-cli/internal/core/ports/driven"
)

// Ensure Markdown implements the interface.
var _ driven.Parser = (*Markdown)(nil)

// Markdown handles Markdown documents. Formatting that carries no
// retrieval signal (front matter, heading markers) is stripped; the
// body text is preserved verbatim.
type Markdown struct{}

// NewMarkdown creates a new Markdown parser.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// Extensions returns the extensions this parser handles.
func (p *Markdown) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Parse converts raw Markdown bytes to normalised text.
func (p *Markdown) Parse(_ context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrParse, raw.Name)
	}

	text := normaliseText(string(raw.Content))
	text = stripFrontMatter(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "#") {
			lines[i] = strings.TrimLeft(trimmed, "# ")
		}
	}
	return strings.Join(lines, "\n"), nil
}

// stripFrontMatter removes a leading YAML front matter block delimited
// by "---" lines, if present.
func stripFrontMatter(text string) string {
	if !strings.HasPrefix(text, "---\n") {
		return text
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return text
	}
	after := rest[end+len("\n---"):]
	after = strings.TrimPrefix(after, "\n")
	return after
}
