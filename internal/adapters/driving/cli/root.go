// Package cli implements the studyrag command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	configfile "github.com/studykit/studyrag-cli/internal/adapters/driven/config/file"
	embeddingollama "github.com/studykit/studyrag-cli/internal/adapters/driven/embedding/ollama"
	"github.com/studykit/studyrag-cli/internal/adapters/driven/filestore/local"
	"github.com/studykit/studyrag-cli/internal/adapters/driven/generation/ollama"
	"github.com/studykit/studyrag-cli/internal/adapters/driven/index/sqlite"
	"github.com/studykit/studyrag-cli/internal/chunker"
	"github.com/studykit/studyrag-cli/internal/core/ports/driving"
	"github.com/studykit/studyrag-cli/internal/core/services"
	"github.com/studykit/studyrag-cli/internal/logger"
	"github.com/studykit/studyrag-cli/internal/parsers"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose    bool
	configPath string
)

// Package-level services, wired in initServices. Tests inject fakes
// directly instead.
var (
	cfg           configfile.Config
	ragService    driving.RAGService
	ingestService *services.IngestService
	fileStore     *local.Store

	// closers releases adapter resources after the command finishes.
	closers []func() error
)

var rootCmd = &cobra.Command{
	Use:   "studyrag",
	Short: "Study assistant over your own documents",
	Long: `studyrag indexes your study documents locally and answers questions
about them using retrieval-augmented generation via Ollama.

Documents are chunked, embedded and stored in a local vector index.
Queries retrieve the most relevant chunks; the ask command additionally
generates an answer grounded in that context.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if skipWiring(cmd) || ragService != nil {
			return nil
		}
		return initServices()
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.studyrag/config.toml)")
}

// Execute runs the root command. Interrupt signals cancel the command
// context so long-running commands like watch shut down cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// skipWiring reports whether a command runs without the service stack.
func skipWiring(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return true
	}
	return false
}

// initServices builds the full adapter stack from configuration.
func initServices() error {
	var err error
	cfg, err = configfile.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	embedder := embeddingollama.NewEmbeddingService(embeddingollama.Config{
		BaseURL:           cfg.Ollama.BaseURL,
		Model:             cfg.Ollama.EmbeddingModel,
		Dimensions:        cfg.Ollama.Dimensions,
		RequestsPerSecond: cfg.Ollama.RequestsPerSecond,
	})
	closers = append(closers, embedder.Close)

	generator := ollama.NewGenerationService(ollama.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.GenerationModel,
		Timeout: cfg.GenerationTimeout(),
	})
	closers = append(closers, generator.Close)

	index, err := sqlite.New(sqlite.Config{
		DataDir:    cfg.Index.DataDir,
		Collection: cfg.Index.Collection,
		Dimensions: cfg.Ollama.Dimensions,
		MaxResults: cfg.Retrieval.MaxResults,
	})
	if err != nil {
		return fmt.Errorf("opening vector index: %w", err)
	}
	closers = append(closers, index.Close)

	fileStore, err = local.New(local.Config{
		Dir:               cfg.Uploads.Dir,
		MaxFileSize:       cfg.Uploads.MaxFileSizeBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
	})
	if err != nil {
		return fmt.Errorf("opening file store: %w", err)
	}

	ragService = services.NewRAGService(services.RAGConfig{
		Chunker: chunker.New(
			chunker.WithChunkSize(cfg.Chunking.ChunkSize),
			chunker.WithOverlap(cfg.Chunking.Overlap),
		),
		Embedder:            embedder,
		Index:               index,
		Generator:           generator,
		Assembler:           services.NewContextAssembler(cfg.Retrieval.MaxContextChars),
		DefaultK:            cfg.Retrieval.DefaultK,
		DefaultLanguage:     cfg.Generation.DefaultLanguage,
		DefaultInstructions: cfg.Generation.Instructions,
	})
	ingestService = services.NewIngestService(fileStore, parsers.Default(), ragService)
	return nil
}

func closeServices() error {
	var firstErr error
	for _, close := range closers {
		if err := close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	closers = nil
	return firstErr
}
