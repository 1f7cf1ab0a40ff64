// Package storage persists walk runs and resolved catalog records in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alvmarrod/cite-weaver/internal/paper"
	_ "github.com/mattn/go-sqlite3"
)

// Storage handles all database operations
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance, opening/creating the DB and initializing schema
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage := &Storage{db: db}

	// Initialize schema
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates tables and indices if they don't exist
func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		iterations INTEGER NOT NULL,
		steps INTEGER DEFAULT 0,
		termination_reason TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS nodes (
		node_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		doi TEXT NOT NULL,
		name TEXT NOT NULL,
		title TEXT,
		first_author TEXT,
		year INTEGER,
		depth INTEGER,
		frequency INTEGER DEFAULT 0,
		is_seed INTEGER DEFAULT 0,
		tags TEXT DEFAULT '[]',
		seq INTEGER DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(run_id),
		UNIQUE(run_id, doi)
	);

	CREATE TABLE IF NOT EXISTS edges (
		edge_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		parent_doi TEXT NOT NULL,
		child_doi TEXT NOT NULL,
		weight INTEGER DEFAULT 1,
		FOREIGN KEY (run_id) REFERENCES runs(run_id),
		UNIQUE(run_id, parent_doi, child_doi)
	);

	CREATE TABLE IF NOT EXISTS records (
		doi TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_run ON nodes(run_id);
	CREATE INDEX IF NOT EXISTS idx_edges_run ON edges(run_id);
	CREATE INDEX IF NOT EXISTS idx_edges_child ON edges(run_id, child_doi);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun registers a new run
func (s *Storage) CreateRun(runID string, iterations int, startedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, started_at, iterations)
		VALUES (?, ?, ?)
	`, runID, startedAt.UTC(), iterations)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun records how many steps completed and why the run ended
func (s *Storage) FinishRun(runID string, steps int, reason string) error {
	res, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, steps = ?, termination_reason = ?
		WHERE run_id = ?
	`, time.Now().UTC(), steps, reason, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// GetRun retrieves a run by ID, returns nil if not found
func (s *Storage) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, started_at, finished_at, iterations, steps, termination_reason
		FROM runs WHERE run_id = ?
	`, runID)
	return scanRun(row)
}

// LatestRun returns the most recently started run, or nil if there is none
func (s *Storage) LatestRun() (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, started_at, finished_at, iterations, steps, termination_reason
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1
	`)
	return scanRun(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	err := row.Scan(&run.RunID, &run.StartedAt, &run.FinishedAt, &run.Iterations, &run.Steps, &run.TerminationReason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns all runs, newest first
func (s *Storage) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, started_at, finished_at, iterations, steps, termination_reason
		FROM runs ORDER BY started_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// UpsertNode inserts a node or overwrites its mutable attributes
func (s *Storage) UpsertNode(n NodeRow) error {
	tags, err := json.Marshal(nonNilTags(n.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO nodes (run_id, doi, name, title, first_author, year, depth, frequency, is_seed, tags, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, doi) DO UPDATE SET
			depth = COALESCE(nodes.depth, EXCLUDED.depth),
			frequency = EXCLUDED.frequency,
			tags = EXCLUDED.tags
	`, n.RunID, n.DOI, n.Name, n.Title, n.FirstAuthor, n.Year, n.Depth, n.Frequency, n.IsSeed, string(tags), n.Seq)
	if err != nil {
		return fmt.Errorf("failed to upsert node: %w", err)
	}
	return nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// UpsertEdge inserts an edge or sets its traversal weight if it exists
func (s *Storage) UpsertEdge(e EdgeRow) error {
	if e.Weight < 1 {
		e.Weight = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO edges (run_id, parent_doi, child_doi, weight)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, parent_doi, child_doi) DO UPDATE SET
			weight = EXCLUDED.weight
	`, e.RunID, e.ParentDOI, e.ChildDOI, e.Weight)
	if err != nil {
		return fmt.Errorf("failed to upsert edge: %w", err)
	}
	return nil
}

// LoadNodes returns the nodes of a run in first-seen order
func (s *Storage) LoadNodes(runID string) ([]NodeRow, error) {
	rows, err := s.db.Query(`
		SELECT node_id, run_id, doi, name, title, first_author, year, depth, frequency, is_seed, tags, seq
		FROM nodes
		WHERE run_id = ?
		ORDER BY seq ASC, node_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load nodes: %w", err)
	}
	defer rows.Close()

	var nodes []NodeRow
	for rows.Next() {
		var n NodeRow
		var tags string
		if err := rows.Scan(&n.NodeID, &n.RunID, &n.DOI, &n.Name, &n.Title, &n.FirstAuthor, &n.Year,
			&n.Depth, &n.Frequency, &n.IsSeed, &tags, &n.Seq); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags for %s: %w", n.DOI, err)
		}
		nodes = append(nodes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	return nodes, nil
}

// LoadEdges returns the edges of a run in insertion order
func (s *Storage) LoadEdges(runID string) ([]EdgeRow, error) {
	rows, err := s.db.Query(`
		SELECT edge_id, run_id, parent_doi, child_doi, weight
		FROM edges
		WHERE run_id = ?
		ORDER BY edge_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load edges: %w", err)
	}
	defer rows.Close()

	var edges []EdgeRow
	for rows.Next() {
		var e EdgeRow
		if err := rows.Scan(&e.EdgeID, &e.RunID, &e.ParentDOI, &e.ChildDOI, &e.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return edges, nil
}

// GetRecord returns a cached catalog record, or nil if the DOI was never stored
func (s *Storage) GetRecord(doi string) (*paper.RawRecord, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM records WHERE doi = ?", doi).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var rec paper.RawRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", doi, err)
	}
	return &rec, nil
}

// PutRecord caches a catalog record under doi
func (s *Storage) PutRecord(doi string, rec *paper.RawRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO records (doi, payload, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(doi) DO UPDATE SET
			payload = EXCLUDED.payload,
			fetched_at = EXCLUDED.fetched_at
	`, doi, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}
	return nil
}

// CountRecords returns the number of cached records
func (s *Storage) CountRecords() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
