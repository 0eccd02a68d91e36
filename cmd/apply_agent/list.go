package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pipeline/internal/config"
	"github.com/jonathan/apply-pipeline/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records in a pipeline stage",
	RunE:  runList,
}

var (
	listStage string
	listLimit int
)

func init() {
	listCmd.Flags().StringVarP(&listStage, "stage", "s", store.StageQueue,
		"Stage to list: queue, processing, processed or unable_to_scrape")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "Maximum records to show")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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

	summaries, err := st.ListStage(ctx, listStage, listLimit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintf(os.Stdout, "no records in %s\n", listStage)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tURL\tSTATUS\tTITLE\tDELIVERED\tERROR")
	for _, s := range summaries {
		delivered := ""
		if listStage == store.StageProcessed {
			delivered = fmt.Sprintf("%t", s.Delivered)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.URL, s.Status, s.JobTitle, delivered, s.Error)
	}
	return w.Flush()
}
