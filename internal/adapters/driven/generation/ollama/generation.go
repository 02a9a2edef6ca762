// Package ollama provides a generation service adapter using Ollama.
// Answers are produced by streaming /api/generate fragments; missing
// models are pulled once and fall back to the configured default.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/studykit/studyrag-cli/internal/core/domain"
	"github.com/studykit/studyrag-cli/internal/core/ports/driven"
	"github.com/studykit/studyrag-cli/internal/logger"
)

// Ensure GenerationService implements the interface.
var _ driven.GenerationService = (*GenerationService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"

	// DefaultTimeout bounds a generate call including stream consumption.
	DefaultTimeout = 90 * time.Second

	// DefaultPullTimeout bounds a one-off model pull.
	DefaultPullTimeout = 5 * time.Minute

	// maxStreamLine caps a single NDJSON fragment line.
	maxStreamLine = 1024 * 1024
)

// Config holds configuration for the Ollama generation service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the default generation model (default: llama3.2).
	Model string

	// Timeout bounds a generate call (default: 90s).
	Timeout time.Duration

	// PullTimeout bounds model provisioning (default: 5m).
	PullTimeout time.Duration
}

// GenerationService produces answers using Ollama.
type GenerationService struct {
	client      *http.Client
	baseURL     string
	model       string
	timeout     time.Duration
	pullTimeout time.Duration
}

// tagsResponse is the Ollama /api/tags response format.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// pullRequest is the Ollama /api/pull request format.
type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// streamFragment is one NDJSON line of the /api/generate stream.
type streamFragment struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewGenerationService creates a new Ollama generation service.
func NewGenerationService(cfg Config) *GenerationService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PullTimeout == 0 {
		cfg.PullTimeout = DefaultPullTimeout
	}

	return &GenerationService{
		// No client-level timeout: per-call contexts bound requests,
		// stream reads included.
		client:      &http.Client{},
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		pullTimeout: cfg.PullTimeout,
	}
}

// GenerateAnswer builds the augmented prompt and streams the answer.
func (s *GenerationService) GenerateAnswer(
	ctx context.Context, question, contextText string, opts driven.AnswerOptions,
) (*driven.GenerationResult, error) {
	model, err := s.resolveModel(ctx, opts.Model)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt := BuildPrompt(contextText, question, opts.Language, opts.Instructions)
	logger.Debug("Generating with model %s (prompt %d chars, timeout %s)", model, len(prompt), timeout)

	answer, err := s.stream(genCtx, model, prompt)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("%w: empty response received from model %s", domain.ErrGeneration, model)
	}

	return &driven.GenerationResult{
		Answer:    answer,
		ModelUsed: model,
	}, nil
}

// resolveModel picks the model to generate with: the requested model if
// present or provisionable, otherwise the default model, provisioning
// it too if needed.
func (s *GenerationService) resolveModel(ctx context.Context, requested string) (string, error) {
	model := requested
	if model == "" {
		model = s.model
	}

	if err := s.EnsureModel(ctx, model); err != nil {
		if errors.Is(err, domain.ErrGenerationUnavailable) {
			return "", err
		}
		if model == s.model {
			return "", fmt.Errorf("%w: default model %s is not available: %v", domain.ErrGeneration, s.model, err)
		}
		logger.Warn("Model %s not available, falling back to %s", model, s.model)
		if err := s.EnsureModel(ctx, s.model); err != nil {
			if errors.Is(err, domain.ErrGenerationUnavailable) {
				return "", err
			}
			return "", fmt.Errorf("%w: default model %s is not available: %v", domain.ErrGeneration, s.model, err)
		}
		model = s.model
	}

	return model, nil
}

// stream issues the generate request and concatenates response
// fragments in arrival order until the backend signals completion.
func (s *GenerationService) stream(ctx context.Context, model, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("%w: ollama status %d", domain.ErrGeneration, resp.StatusCode)
		}
		return "", fmt.Errorf("%w: ollama status %d: %s", domain.ErrGeneration, resp.StatusCode, string(body))
	}

	var answer strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var frag streamFragment
		if err := json.Unmarshal(line, &frag); err != nil {
			// Skip malformed fragments; completion is signalled
			// explicitly by the done marker.
			continue
		}

		answer.WriteString(frag.Response)
		if frag.Done {
			return answer.String(), nil
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("generation timed out: %w", ctx.Err())
		}
		return "", fmt.Errorf("%w: read stream: %v", domain.ErrGeneration, err)
	}

	// Stream ended without a done marker.
	return "", fmt.Errorf("%w: stream ended without completion marker", domain.ErrGeneration)
}

// ListModels returns the model names available on the backend.
func (s *GenerationService) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ollama status %d", domain.ErrGeneration, resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrGeneration, err)
	}

	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}

// EnsureModel checks that a model is present, pulling it once if not.
func (s *GenerationService) EnsureModel(ctx context.Context, model string) error {
	models, err := s.ListModels(ctx)
	if err != nil {
		return err
	}

	for _, name := range models {
		// Tags carry a version suffix, e.g. "llama3.2:latest".
		if name == model || strings.HasPrefix(name, model+":") {
			return nil
		}
	}

	logger.Info("Model %s not found, attempting to pull", model)
	return s.pull(ctx, model)
}

// pull provisions a model on the backend.
func (s *GenerationService) pull(ctx context.Context, model string) error {
	pullCtx, cancel := context.WithTimeout(ctx, s.pullTimeout)
	defer cancel()

	jsonBody, err := json.Marshal(pullRequest{Name: model, Stream: false})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		pullCtx,
		http.MethodPost,
		s.baseURL+"/api/pull",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: pull %s: ollama status %d", domain.ErrGeneration, model, resp.StatusCode)
	}

	// Drain the body so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	logger.Info("Successfully pulled model %s", model)
	return nil
}

// ModelName returns the default generation model.
func (s *GenerationService) ModelName() string {
	return s.model
}

// Ping validates the backend is reachable via the /api/tags endpoint.
func (s *GenerationService) Ping(ctx context.Context) error {
	_, err := s.ListModels(ctx)
	return err
}

// Close releases resources.
func (s *GenerationService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// classifyTransportError maps network failures onto the domain
// taxonomy: timeouts keep their context error, everything else means
// the backend is unreachable.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("generation timed out: %w", err)
	}
	return fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
}
