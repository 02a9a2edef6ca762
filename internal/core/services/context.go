package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

// NoContextSentinel is the context text used when retrieval found
// nothing. It is passed to generation verbatim so the model knows the
// corpus had no answer material.
const NoContextSentinel = "No relevant context found."

// DefaultMaxContextChars bounds assembled context size.
const DefaultMaxContextChars = 8000

// ContextAssembler turns retrieval hits into a bounded, attributed
// context block and the ordered list of contributing sources.
type ContextAssembler struct {
	maxChars int
}

// NewContextAssembler creates an assembler with the given character
// budget. Non-positive budgets use the default.
func NewContextAssembler(maxChars int) *ContextAssembler {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}
	return &ContextAssembler{maxChars: maxChars}
}

// Assemble formats each hit as an attributed block, in retrieval order,
// and includes blocks while the joined text stays within the character
// budget. Truncation drops whole worst-ranked blocks from the tail,
// never mid-chunk, so included context is always intact. Sources are
// the deduplicated file names of the included chunks, in order of first
// appearance.
func (a *ContextAssembler) Assemble(chunks []domain.RelevantChunk) domain.Context {
	if len(chunks) == 0 {
		return domain.Context{Text: NoContextSentinel, Sources: []string{}}
	}

	seen := make(map[string]struct{}, len(chunks))
	sources := make([]string, 0, len(chunks))

	var text strings.Builder
	for i, chunk := range chunks {
		name := chunk.FileName()
		block := fmt.Sprintf("[Source %d: %s]\n%s", i+1, name, chunk.Content)

		needed := len(block)
		if text.Len() > 0 {
			needed += len("\n\n")
		}
		if text.Len()+needed > a.maxChars {
			break
		}

		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(block)

		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			sources = append(sources, name)
		}
	}

	// Degenerate case: the best hit alone exceeds the budget. A hard
	// cut is better than returning no context at all. The cut backs up
	// to a rune boundary so the tail stays valid UTF-8.
	if text.Len() == 0 {
		name := chunks[0].FileName()
		block := fmt.Sprintf("[Source 1: %s]\n%s", name, chunks[0].Content)
		cut := a.maxChars
		for cut > 0 && !utf8.RuneStart(block[cut]) {
			cut--
		}
		return domain.Context{Text: block[:cut], Sources: []string{name}}
	}

	return domain.Context{Text: text.String(), Sources: sources}
}
