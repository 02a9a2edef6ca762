package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	queryK    int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Retrieve relevant chunks without generating an answer",
	Long: `Embeds the question, finds the most similar indexed chunks and
prints them with source attribution. No language model is involved;
use ask for a generated answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "results", "n", 0, "number of chunks to retrieve (0 = configured default)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	result, err := ragService.Query(cmd.Context(), args[0], queryK)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if result.NFound == 0 {
		cmd.Println("No relevant chunks found.")
		return nil
	}

	cmd.Printf("Found %d chunks:\n\n", result.NFound)
	for i, chunk := range result.Chunks {
		cmd.Printf("  [%d] %s (distance %.4f)\n", i+1, chunk.FileName(), chunk.Distance)
		cmd.Printf("      %s\n\n", snippet(chunk.Content, 200))
	}
	cmd.Printf("Sources: %s\n", strings.Join(result.Sources, ", "))
	return nil
}

// snippet truncates text for table display.
func snippet(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
