// Package mcp provides an MCP (Model Context Protocol) server adapter
// for studyrag. It lets AI assistants query and ask questions about the
// locally indexed study documents.
package mcp

import "errors"

// ErrMissingRAGService is returned when the rag service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")
