package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/studykit/studyrag-cli/internal/connectors/uploads"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the uploads directory and index changes",
	Long: `Watches the uploads directory and keeps the index in sync with it:
files dropped in or modified are (re)indexed, files removed are
deleted from the index. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if ingestService == nil || fileStore == nil {
		return errors.New("ingest service not configured")
	}

	watcher := uploads.NewWatcher(fileStore.Dir(), ingestService, 0)
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", fileStore.Dir())

	err := watcher.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
