package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

// QueryInput is the input schema for the query_documents tool.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the question or topic to find relevant document chunks for"`
	K     int    `json:"k,omitempty" jsonschema:"number of chunks to retrieve (default 5)"`
}

// QueryOutput is the output schema for the query_documents tool.
type QueryOutput struct {
	Context string        `json:"context"`
	Sources []string      `json:"sources"`
	Chunks  []ChunkOutput `json:"chunks"`
	Count   int           `json:"count"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	Content  string  `json:"content"`
	Source   string  `json:"source"`
	Distance float64 `json:"distance"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question       string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	K              int    `json:"k,omitempty" jsonschema:"number of chunks to retrieve (default 5)"`
	Model          string `json:"model,omitempty" jsonschema:"generation model override"`
	Language       string `json:"language,omitempty" jsonschema:"answer language (empty or auto leaves it to the model)"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" jsonschema:"generation timeout in seconds (default 90)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer         string   `json:"answer,omitempty"`
	Sources        []string `json:"sources"`
	Count          int      `json:"count"`
	ModelUsed      string   `json:"model_used,omitempty"`
	Degraded       bool     `json:"degraded,omitempty"`
	DegradedReason string   `json:"degraded_reason,omitempty"`
	Context        string   `json:"context,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_documents",
		Description: "Retrieve the most relevant chunks from the indexed study documents",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question grounded in the indexed study documents",
	}, s.handleAsk)
}

// handleQuery handles the query_documents tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	result, err := s.ports.RAG.Query(ctx, input.Query, input.K)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Context: result.Context,
		Sources: result.Sources,
		Chunks:  make([]ChunkOutput, len(result.Chunks)),
		Count:   result.NFound,
	}
	for i := range result.Chunks {
		output.Chunks[i] = ChunkOutput{
			Content:  result.Chunks[i].Content,
			Source:   result.Chunks[i].FileName(),
			Distance: result.Chunks[i].Distance,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	outcome, err := s.ports.RAG.AugmentedQuery(ctx, input.Question, domain.AskOptions{
		K:        input.K,
		Model:    input.Model,
		Language: input.Language,
		Timeout:  time.Duration(input.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:         outcome.Answer,
		Sources:        outcome.Sources,
		Count:          outcome.NFound,
		ModelUsed:      outcome.ModelUsed,
		Degraded:       outcome.Degraded,
		DegradedReason: outcome.DegradedReason,
	}
	// Only ship the raw context when there is no generated answer to
	// keep tool results small.
	if outcome.Degraded {
		output.Context = outcome.ContextUsed
	}

	return nil, output, nil
}
