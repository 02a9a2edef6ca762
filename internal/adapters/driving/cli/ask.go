package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

var (
	askK            int
	askModel        string
	askLanguage     string
	askInstructions string
	askTimeout      time.Duration
	askJSON         bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Runs the full pipeline: retrieves the most relevant chunks, builds
an augmented prompt and generates an answer grounded in your documents.

If the generation backend is unavailable or times out, the retrieved
context is still printed so the query is never a total loss.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "results", "n", 0, "number of chunks to retrieve (0 = configured default)")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "generation model override")
	askCmd.Flags().StringVarP(&askLanguage, "language", "l", "", "answer language (empty or auto = model's choice)")
	askCmd.Flags().StringVar(&askInstructions, "instructions", "", "extra tone or formatting directives")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 0, "generation timeout (0 = configured default)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the outcome as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	outcome, err := ragService.AugmentedQuery(cmd.Context(), args[0], domain.AskOptions{
		K:            askK,
		Model:        askModel,
		Language:     askLanguage,
		Instructions: askInstructions,
		Timeout:      askTimeout,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(outcome, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal outcome: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if outcome.Degraded {
		cmd.Printf("Could not generate an answer: %s\n\n", outcome.DegradedReason)
		cmd.Println("Retrieved context:")
		cmd.Println(outcome.ContextUsed)
	} else {
		cmd.Println(outcome.Answer)
	}

	if len(outcome.Sources) > 0 {
		cmd.Printf("\nSources: %s\n", strings.Join(outcome.Sources, ", "))
	}
	if outcome.ModelUsed != "" && verbose {
		cmd.Printf("Model: %s\n", outcome.ModelUsed)
	}
	return nil
}
