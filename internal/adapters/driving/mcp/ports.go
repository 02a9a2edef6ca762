package mcp

import (
	"github.com/studykit/studyrag-cli/internal/core/ports/driving"
	"github.com/studykit/studyrag-cli/internal/core/services"
)

// Ports aggregates the driving port interfaces required by the MCP
// server. This provides a single injection point for dependency
// injection.
type Ports struct {
	// RAG provides retrieval and augmented query capabilities.
	RAG driving.RAGService

	// Ingest provides document storage access for resources. Optional;
	// without it the document resources report empty.
	Ingest *services.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
