// Package main provides the citeweaver CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alvmarrod/cite-weaver/internal/config"
	"github.com/alvmarrod/cite-weaver/internal/version"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so report here
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "citeweaver",
	Short: "Biased random walk over citation networks",
	Long: `citeweaver starts from a trusted seed corpus of papers and follows their
references with a relevance-biased random walk, building a provenance DAG of
probably-relevant papers.

Every run is stored in SQLite and can be re-rendered later without touching
the network.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file, JSON or YAML (default: $CITEWEAVER_CONFIG or config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log_level from the config")
	rootCmd.Version = version.Version
}

// exitError carries a process exit code through cobra
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitError
}

// setupLogging configures logrus the same way for every command
func setupLogging(level logrus.Level) {
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// loadConfig resolves the config path, falling back to defaults when the
// default file does not exist
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg := config.Default()
			applyLogLevel(cfg)
			logrus.Warnf("No config file at %s, using defaults", path)
			return cfg, nil
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, withCode(ExitConfigError, "loading config: %w", err)
	}
	applyLogLevel(cfg)
	logrus.Infof("Configuration loaded from %s", path)
	return cfg, nil
}

func applyLogLevel(cfg *config.Config) {
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	setupLogging(cfg.Level())
}
