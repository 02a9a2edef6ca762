// Package domain contains the core types and errors of the studyrag
// ingestion and retrieval pipeline. It has no dependencies on adapters
// or infrastructure.
package domain
