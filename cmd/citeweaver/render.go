package main

import (
	"github.com/alvmarrod/cite-weaver/internal/dag"
	"github.com/alvmarrod/cite-weaver/internal/export"
	"github.com/alvmarrod/cite-weaver/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	renderRunID  string
	renderOutput string
	renderLayout string
)

func init() {
	renderCmd.Flags().StringVar(&renderRunID, "run", "", "Run ID to render (default: latest run)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Override output_dir")
	renderCmd.Flags().StringVar(&renderLayout, "layout", "", "Graph layout: force, circle, grid, or breadthfirst")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Re-export a stored run without touching the network",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if renderOutput != "" {
		cfg.OutputDir = renderOutput
	}
	if renderLayout != "" {
		if err := export.ValidateLayout(renderLayout); err != nil {
			return withCode(ExitConfigError, "%w", err)
		}
		cfg.Layout = renderLayout
	}

	store, err := storage.NewStorage(cfg.DBPath)
	if err != nil {
		return withCode(ExitError, "opening database: %w", err)
	}
	defer store.Close()

	var run *storage.Run
	if renderRunID != "" {
		run, err = store.GetRun(renderRunID)
	} else {
		run, err = store.LatestRun()
	}
	if err != nil {
		return withCode(ExitError, "looking up run: %w", err)
	}
	if run == nil {
		if renderRunID != "" {
			return withCode(ExitDataError, "run %s not found in %s", renderRunID, cfg.DBPath)
		}
		return withCode(ExitDataError, "no runs stored in %s", cfg.DBPath)
	}

	snap, err := dag.LoadSnapshot(store, run.RunID)
	if err != nil {
		return withCode(ExitError, "loading run %s: %w", run.RunID, err)
	}
	logrus.WithFields(logrus.Fields{
		"run":   run.RunID,
		"nodes": len(snap.Nodes),
		"edges": len(snap.Edges),
	}).Info("Run loaded")

	if err := writeOutputs(cfg, run.RunID, snap); err != nil {
		return withCode(ExitError, "exporting: %w", err)
	}
	export.LogTop(snap, cfg.TopN)
	return nil
}
