package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/alvmarrod/cite-weaver/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runsCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := storage.NewStorage(cfg.DBPath)
		if err != nil {
			return withCode(ExitError, "opening database: %w", err)
		}
		defer store.Close()

		runs, err := store.ListRuns()
		if err != nil {
			return withCode(ExitError, "%w", err)
		}
		records, err := store.CountRecords()
		if err != nil {
			return withCode(ExitError, "%w", err)
		}

		if err := printRuns(cmd.OutOrStdout(), runs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d runs, %d cached records in %s\n", len(runs), records, cfg.DBPath)
		return nil
	},
}

func printRuns(w io.Writer, runs []*storage.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tSTEPS\tREASON")
	for _, r := range runs {
		duration := "-"
		reason := r.TerminationReason
		if r.FinishedAt.Valid {
			duration = r.FinishedAt.Time.Sub(r.StartedAt).Round(time.Second).String()
		}
		if reason == "" {
			reason = "running"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n",
			r.RunID, r.StartedAt.Local().Format(time.DateTime), duration, r.Steps, r.Iterations, reason)
	}
	return tw.Flush()
}
