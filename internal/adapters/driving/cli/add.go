package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Add documents to the index",
	Long: `Stores the given files in the uploads directory and indexes them.
Each file is parsed, split into chunks, embedded and added to the
vector index under its base name. Re-adding a file replaces its
previous chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	failed := 0
	for _, path := range args {
		result, err := ingestService.IngestFile(cmd.Context(), path)
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}
		cmd.Printf("  %s: %d chunks indexed\n", result.SourceName, result.ChunksAdded)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
