package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop all indexed chunks",
	Long: `Removes every entry from the collection. The collection itself and
its configuration survive, so new documents can be added immediately.
Stored upload files are not touched.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "skip confirmation")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	if !resetForce {
		cmd.Print("This removes all indexed chunks. Continue? [y/N]: ")
		var answer string
		fmt.Fscanln(cmd.InOrStdin(), &answer) //nolint:errcheck
		if answer != "y" && answer != "Y" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := ragService.ResetCollection(cmd.Context()); err != nil {
		return fmt.Errorf("failed to reset collection: %w", err)
	}

	cmd.Println("Collection reset.")
	return nil
}
