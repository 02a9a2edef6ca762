package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	stats, err := ragService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Printf("Collection:      %s\n", stats.CollectionName)
	cmd.Printf("Indexed chunks:  %d\n", stats.EntryCount)
	cmd.Printf("Embedding model: %s\n", stats.EmbeddingModel)

	backend := "unavailable"
	if stats.Generation.IsAvailable {
		backend = "available"
	}
	cmd.Printf("Generation:      %s (%s)\n", stats.Generation.Model, backend)
	if len(stats.Generation.Models) > 0 {
		cmd.Printf("Models:          %s\n", strings.Join(stats.Generation.Models, ", "))
	}
	return nil
}
