package driven

import (
	"context"
	"time"
)

// AnswerOptions configures a single generation call.
type AnswerOptions struct {
	// Model overrides the default generation model when non-empty. If
	// the model is missing the backend attempts to provision it once,
	// then falls back to the default model.
	Model string

	// Language asks for the answer in a specific language. Empty or
	// "auto" leaves the choice to the model.
	Language string

	// Instructions are extra tone or formatting directives appended to
	// the prompt.
	Instructions string

	// Timeout bounds the entire call including stream consumption.
	// Zero uses the service default.
	Timeout time.Duration
}

// GenerationResult is a completed generation: the answer text and the
// model that actually produced it (after any fallback).
type GenerationResult struct {
	Answer    string
	ModelUsed string
}

// GenerationService produces answers from an augmented prompt built out
// of retrieval context and the literal question.
//
// Failures are classified with the domain sentinels:
// ErrGenerationUnavailable when the backend is unreachable and
// ErrGeneration when it is reachable but errors, streams garbage, or
// completes with an empty answer.
type GenerationService interface {
	// GenerateAnswer builds the augmented prompt (context block, then
	// question, then instructions) and consumes the backend's streamed
	// response until completion.
	GenerateAnswer(ctx context.Context, question, contextText string, opts AnswerOptions) (*GenerationResult, error)

	// ListModels returns the model names available on the backend.
	ListModels(ctx context.Context) ([]string, error)

	// EnsureModel checks that a model is present, pulling it if needed.
	EnsureModel(ctx context.Context, model string) error

	// ModelName returns the default generation model.
	ModelName() string

	// Ping validates the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
