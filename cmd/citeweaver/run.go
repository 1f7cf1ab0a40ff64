package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alvmarrod/cite-weaver/internal/config"
	"github.com/alvmarrod/cite-weaver/internal/corpus"
	"github.com/alvmarrod/cite-weaver/internal/crossref"
	"github.com/alvmarrod/cite-weaver/internal/dag"
	"github.com/alvmarrod/cite-weaver/internal/export"
	"github.com/alvmarrod/cite-weaver/internal/metrics"
	"github.com/alvmarrod/cite-weaver/internal/paper"
	"github.com/alvmarrod/cite-weaver/internal/resolve"
	"github.com/alvmarrod/cite-weaver/internal/score"
	"github.com/alvmarrod/cite-weaver/internal/storage"
	"github.com/alvmarrod/cite-weaver/internal/version"
	"github.com/alvmarrod/cite-weaver/internal/walk"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Termination reasons written to metrics and the runs table
const (
	ReasonBudgetExhausted = "budget_exhausted"
	ReasonSignal          = "signal"
	ReasonError           = "error"
)

var (
	runIterations int
	runSeed       int64
	runOutput     string
)

func init() {
	runCmd.Flags().IntVarP(&runIterations, "iterations", "n", 0, "Override the step budget")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Override random_seed (0 keeps the config value)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Override output_dir")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Walk the citation network from the seed corpus",
	Long: `Resolve the seed corpus, walk the citation network for the configured
number of steps and write papers.csv, edges.csv, graph.json, graph.html and
tree.txt to the output directory.

SIGINT or SIGTERM stops the walk after the step in flight; the partial graph
is still stored and exported. A second signal exits immediately.`,
	Args: cobra.NoArgs,
	RunE: runWalk,
}

// inputs are the tabular run inputs
type inputs struct {
	seeds    []string
	keywords []score.Keyword
	authors  []string
	tags     []dag.TagTerm
}

func loadInputs(cfg *config.Config) (*inputs, error) {
	var in inputs
	var err error

	if in.seeds, err = corpus.ReadSeedDOIs(cfg.SeedCorpusPath); err != nil {
		return nil, withCode(ExitConfigError, "reading seed corpus: %w", err)
	}
	if len(in.seeds) == 0 {
		return nil, withCode(ExitDataError, "%w: no DOIs in %s", walk.ErrEmptySeedSet, cfg.SeedCorpusPath)
	}
	if in.keywords, err = corpus.ReadKeywords(cfg.KeywordsPath); err != nil {
		return nil, withCode(ExitConfigError, "reading keywords: %w", err)
	}
	if in.authors, err = corpus.ReadAuthors(cfg.AuthorsPath); err != nil {
		return nil, withCode(ExitConfigError, "reading important authors: %w", err)
	}
	if in.tags, err = corpus.ReadTags(cfg.TagsPath); err != nil {
		return nil, withCode(ExitConfigError, "reading tag vocabulary: %w", err)
	}

	logrus.Infof("Inputs loaded: %d seeds, %d keywords, %d important authors, %d tag terms",
		len(in.seeds), len(in.keywords), len(in.authors), len(in.tags))
	return &in, nil
}

// buildResolver picks the offline record file or Crossref, optionally behind
// the SQLite record cache
func buildResolver(cfg *config.Config, store *storage.Storage) (paper.Resolver, error) {
	var r paper.Resolver
	if cfg.RecordsPath != "" {
		static, err := resolve.LoadStatic(cfg.RecordsPath)
		if err != nil {
			return nil, withCode(ExitConfigError, "loading offline records: %w", err)
		}
		logrus.Infof("Offline mode: %d records from %s", static.Len(), cfg.RecordsPath)
		r = static
	} else {
		r = crossref.NewClient(
			crossref.WithBaseURL(cfg.CrossrefBaseURL),
			crossref.WithMailto(cfg.Mailto),
			crossref.WithRateLimit(cfg.RateLimit),
			crossref.WithTimeout(cfg.ResolveTimeout()),
		)
		if cfg.Mailto == "" {
			logrus.Warn("No mailto configured; Crossref may throttle anonymous clients")
		}
	}

	if cfg.CacheRecords {
		return resolve.NewCached(r, store), nil
	}
	return r, nil
}

func runWalk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runIterations > 0 {
		cfg.Iterations = runIterations
	}
	if runSeed != 0 {
		cfg.RandomSeed = runSeed
	}
	if runOutput != "" {
		cfg.OutputDir = runOutput
	}

	logrus.Infof("Cite Weaver v%s starting...", version.Version)

	in, err := loadInputs(cfg)
	if err != nil {
		return err
	}

	store, err := storage.NewStorage(cfg.DBPath)
	if err != nil {
		return withCode(ExitError, "initializing storage: %w", err)
	}
	defer store.Close()
	logrus.Infof("Database initialized: %s", cfg.DBPath)

	resolver, err := buildResolver(cfg, store)
	if err != nil {
		return err
	}

	scorer, err := score.NewScorer(in.keywords, in.authors)
	if err != nil {
		return withCode(ExitConfigError, "building scorer: %w", err)
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	runID := uuid.NewString()
	tracker := metrics.NewTracker(runID)

	session, err := walk.NewSession(walk.Options{
		Resolver:             resolver,
		Scorer:               scorer,
		Policy:               cfg.Policy(),
		Rand:                 rand.New(rand.NewSource(seed)),
		MaxAttempts:          cfg.MaxAttempts,
		RestartProbability:   cfg.RestartProbability,
		ResolveTimeout:       cfg.ResolveTimeout(),
		SeedAuthorsImportant: cfg.SeedAuthorsImportant,
		Observer:             tracker.Observe,
	})
	if err != nil {
		return withCode(ExitConfigError, "configuring walk: %w", err)
	}

	if err := store.CreateRun(runID, cfg.Iterations, time.Now()); err != nil {
		return withCode(ExitError, "registering run: %w", err)
	}
	logrus.WithFields(logrus.Fields{"run": runID, "random_seed": seed}).Info("Run registered")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// After the first signal, restore default handling so a second one kills
	// the process instead of waiting for the step in flight
	go func() {
		<-ctx.Done()
		stop()
	}()

	if _, err := session.Seed(ctx, in.seeds); err != nil {
		reason := ReasonError
		code := ExitDataError
		if ctx.Err() != nil {
			reason, code = ReasonSignal, ExitError
		}
		finishRun(store, tracker, cfg, runID, 0, reason)
		return withCode(code, "seeding: %w", err)
	}
	logrus.Infof("Seed set ready: %d papers, %d important authors", len(session.Seeds()), scorer.ImportantAuthorCount())

	acc := dag.NewAccumulator(dag.NewVocabulary(in.tags))

	// Start progress logger
	var wg sync.WaitGroup
	stopProgress := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				logrus.Info(tracker.LogProgress())
			case <-stopProgress:
				return
			}
		}
	}()

	tracker.MarkStarted()
	steps, walkErr := session.Run(ctx, cfg.Iterations, acc)

	reason := ReasonBudgetExhausted
	switch {
	case walkErr == nil:
	case errors.Is(walkErr, context.Canceled):
		reason = ReasonSignal
	default:
		reason = ReasonError
	}

	logrus.Infof("Walk finished: %d/%d steps (%s)", steps, cfg.Iterations, reason)
	logrus.Info("Initiating shutdown...")

	logrus.Info("Step 1/4: Stopping progress logger...")
	close(stopProgress)
	wg.Wait()

	logrus.Info("Step 2/4: Flushing in-memory graph to database...")
	if err := acc.Flush(store, runID); err != nil {
		logrus.Errorf("Failed to flush graph: %v", err)
	} else {
		logrus.Info("Graph flushed successfully")
	}
	st := acc.Stats()
	tracker.SetGraphSize(st.Nodes, st.Edges)
	logrus.Infof("Graph: %d nodes (%d seeds), %d edges, max depth %d, %d back-edges dropped",
		st.Nodes, st.Seeds, st.Edges, st.MaxDepth, st.SkippedBackEdges)

	logrus.Info("Step 3/4: Exporting outputs...")
	snap := acc.Snapshot()
	exportErr := writeOutputs(cfg, runID, snap)
	export.LogTop(snap, cfg.TopN)

	logrus.Info("Step 4/4: Writing final metrics...")
	logrus.Info("Final stats: " + tracker.LogProgress())
	finishRun(store, tracker, cfg, runID, steps, reason)

	if c, ok := resolver.(*resolve.Cached); ok {
		hits, misses := c.Stats()
		logrus.Infof("Record cache: %d hits, %d misses", hits, misses)
	}

	logrus.Info("Shutdown complete. Goodbye!")

	if walkErr != nil && reason == ReasonError {
		return withCode(ExitError, "walk failed: %w", walkErr)
	}
	if exportErr != nil {
		return withCode(ExitError, "exporting: %w", exportErr)
	}
	return nil
}

func writeOutputs(cfg *config.Config, runID string, snap *dag.Snapshot) error {
	opts := export.HTMLOptions{Layout: cfg.Layout, Title: "Citation walk " + runID}
	_, err := export.WriteAll(cfg.OutputDir, runID, snap, opts)
	return err
}

func finishRun(store *storage.Storage, tracker *metrics.Tracker, cfg *config.Config, runID string, steps int, reason string) {
	if err := store.FinishRun(runID, steps, reason); err != nil {
		logrus.Errorf("Failed to record run end: %v", err)
	}
	if err := tracker.WriteToFile(cfg.MetricsPath, reason); err != nil {
		logrus.Errorf("Failed to write metrics: %v", err)
	} else {
		logrus.Infof("Metrics written to %s", cfg.MetricsPath)
	}
}
