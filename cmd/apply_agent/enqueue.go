package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pipeline/internal/config"
	"github.com/jonathan/apply-pipeline/internal/ingest"
	"github.com/jonathan/apply-pipeline/internal/store"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <url>...",
	Short: "Add job posting URLs to the queue",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEnqueue,
}

func init() {
	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	gate := ingest.New(st, nil)
	for _, url := range args {
		added, err := gate.Admit(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", url, err)
		}
		if added {
			fmt.Fprintf(os.Stdout, "queued: %s\n", url)
		} else {
			fmt.Fprintf(os.Stdout, "already tracked: %s\n", url)
		}
	}
	return nil
}
