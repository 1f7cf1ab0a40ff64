package storage

import (
	"database/sql"
	"time"
)

// Run is one walk over the citation network
type Run struct {
	RunID             string
	StartedAt         time.Time
	FinishedAt        sql.NullTime
	Iterations        int
	Steps             int
	TerminationReason string
}

// NodeRow is a persisted DAG node
type NodeRow struct {
	NodeID      int
	RunID       string
	DOI         string
	Name        string
	Title       string
	FirstAuthor string
	Year        int
	Depth       sql.NullInt64
	Frequency   int
	IsSeed      bool
	Tags        []string
	Seq         int // first-seen order within the run
}

// EdgeRow is a persisted citation edge; Weight counts traversals
type EdgeRow struct {
	EdgeID    int
	RunID     string
	ParentDOI string
	ChildDOI  string
	Weight    int
}

// Metrics tracks walk statistics for export on exit
type Metrics struct {
	RunID             string         `json:"run_id"`
	StartTime         time.Time      `json:"start_time"`
	EndTime           time.Time      `json:"end_time"`
	Steps             int            `json:"steps"`
	Outcomes          map[string]int `json:"outcomes"`
	NodesDiscovered   int            `json:"nodes_discovered"`
	EdgesRecorded     int            `json:"edges_recorded"`
	Resolutions       int            `json:"resolutions"`
	ResolveFailures   int            `json:"resolve_failures"`
	ExhaustedSteps    int            `json:"exhausted_steps"`
	TotalStepTimeMs   int64          `json:"total_step_time_ms"`
	AvgStepTimeMs     int64          `json:"avg_step_time_ms"`
	FinalRestartP     float64        `json:"final_restart_probability"`
	TerminationReason string         `json:"termination_reason"`
}
