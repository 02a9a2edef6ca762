package driven

import (
	"context"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

// Parser converts raw file bytes of a specific format family into
// normalised text. The core never branches on extension itself; a
// Registry dispatches to the right parser with a plain-text fallback.
type Parser interface {
	// Extensions returns the normalised file extensions this parser
	// handles (lower case, leading dot).
	Extensions() []string

	// Parse converts raw bytes to normalised text. Failures wrap
	// domain.ErrParse.
	Parse(ctx context.Context, raw *domain.RawFile) (string, error)
}
