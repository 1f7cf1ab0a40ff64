package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alvmarrod/cite-weaver/internal/walk"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --config nor CITEWEAVER_CONFIG is set
const DefaultPath = "config.json"

// Config holds all runtime configuration parameters
type Config struct {
	SeedCorpusPath       string `json:"seed_corpus_path" yaml:"seed_corpus_path"`
	KeywordsPath         string `json:"keywords_path" yaml:"keywords_path"`
	AuthorsPath          string `json:"authors_path" yaml:"authors_path"`
	TagsPath             string `json:"tags_path" yaml:"tags_path"`
	RecordsPath          string `json:"records_path" yaml:"records_path"`
	SeedAuthorsImportant bool   `json:"seed_authors_important" yaml:"seed_authors_important"`

	Iterations         int     `json:"iterations" yaml:"iterations"`
	MaxAttempts        int     `json:"max_attempts" yaml:"max_attempts"`
	RestartProbability float64 `json:"restart_probability" yaml:"restart_probability"`
	RandomSeed         int64   `json:"random_seed" yaml:"random_seed"`

	RejectThreshold float64 `json:"reject_threshold" yaml:"reject_threshold"`
	WeakThreshold   float64 `json:"weak_threshold" yaml:"weak_threshold"`
	StrongThreshold float64 `json:"strong_threshold" yaml:"strong_threshold"`
	RejectRestart   float64 `json:"reject_restart" yaml:"reject_restart"`
	WeakRestart     float64 `json:"weak_restart" yaml:"weak_restart"`
	NeutralRestart  float64 `json:"neutral_restart" yaml:"neutral_restart"`
	StrongRestart   float64 `json:"strong_restart" yaml:"strong_restart"`

	ResolveTimeoutMs int     `json:"resolve_timeout_ms" yaml:"resolve_timeout_ms"`
	RateLimit        float64 `json:"rate_limit" yaml:"rate_limit"`
	CrossrefBaseURL  string  `json:"crossref_base_url" yaml:"crossref_base_url"`
	Mailto           string  `json:"mailto" yaml:"mailto"`
	CacheRecords     bool    `json:"cache_records" yaml:"cache_records"`

	DBPath      string `json:"db_path" yaml:"db_path"`
	MetricsPath string `json:"metrics_path" yaml:"metrics_path"`
	OutputDir   string `json:"output_dir" yaml:"output_dir"`
	Layout      string `json:"layout" yaml:"layout"`
	TopN        int    `json:"top_n" yaml:"top_n"`
	LogLevel    string `json:"log_level" yaml:"log_level"`
}

// GetConfigPath returns the config file path from environment or default
func GetConfigPath() string {
	if path := os.Getenv("CITEWEAVER_CONFIG"); path != "" {
		return path
	}
	return DefaultPath
}

// LoadConfig reads and validates configuration from a JSON or YAML file.
// Keys absent from the file keep their defaults, so an explicit 0 is honored.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg Config
	applyDefaults(&cfg)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	applyEnvironmentOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	applyEnvironmentOverrides(&cfg)
	return &cfg
}

// applyDefaults sets default values before the file is decoded over them
func applyDefaults(cfg *Config) {
	policy := walk.DefaultPolicy()

	cfg.SeedCorpusPath = "corpus.csv"
	cfg.Iterations = 100
	cfg.MaxAttempts = walk.DefaultMaxAttempts
	cfg.RestartProbability = walk.DefaultRestartProbability

	cfg.RejectThreshold = policy.RejectThreshold
	cfg.WeakThreshold = policy.WeakThreshold
	cfg.StrongThreshold = policy.StrongThreshold
	cfg.RejectRestart = policy.RejectRestart
	cfg.WeakRestart = policy.WeakRestart
	cfg.NeutralRestart = policy.NeutralRestart
	cfg.StrongRestart = policy.StrongRestart

	cfg.ResolveTimeoutMs = 15000
	cfg.RateLimit = 5
	cfg.CrossrefBaseURL = "https://api.crossref.org"
	cfg.CacheRecords = true

	cfg.DBPath = "citeweaver.db"
	cfg.MetricsPath = "metrics.json"
	cfg.OutputDir = "out"
	cfg.Layout = "force"
	cfg.TopN = 10
	cfg.LogLevel = "info"
}

func applyEnvironmentOverrides(cfg *Config) {
	if addr := os.Getenv("CROSSREF_MAILTO"); addr != "" {
		cfg.Mailto = addr
	}
}

// validate checks that required fields are present and values are sensible
func validate(cfg *Config) error {
	if cfg.SeedCorpusPath == "" {
		return fmt.Errorf("seed_corpus_path is required")
	}
	if cfg.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1")
	}
	if cfg.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1")
	}
	if cfg.RestartProbability < 0 || cfg.RestartProbability > 1 {
		return fmt.Errorf("restart_probability must be within [0,1]")
	}
	if err := cfg.Policy().Validate(); err != nil {
		return err
	}
	if cfg.ResolveTimeoutMs < 1000 {
		return fmt.Errorf("resolve_timeout_ms must be >= 1000")
	}
	if cfg.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be > 0")
	}
	if cfg.TopN < 0 {
		return fmt.Errorf("top_n must be >= 0")
	}
	switch cfg.Layout {
	case "force", "circle", "grid", "breadthfirst":
	default:
		return fmt.Errorf("layout must be force, circle, grid, or breadthfirst")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Policy returns the score banding described by the config
func (c *Config) Policy() walk.Policy {
	return walk.Policy{
		RejectThreshold: c.RejectThreshold,
		WeakThreshold:   c.WeakThreshold,
		StrongThreshold: c.StrongThreshold,
		RejectRestart:   c.RejectRestart,
		WeakRestart:     c.WeakRestart,
		NeutralRestart:  c.NeutralRestart,
		StrongRestart:   c.StrongRestart,
	}
}

// ResolveTimeout returns the per-resolution deadline
func (c *Config) ResolveTimeout() time.Duration {
	return time.Duration(c.ResolveTimeoutMs) * time.Millisecond
}

// Level returns the parsed log level, Info if unparsable
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
