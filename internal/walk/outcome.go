package walk

import (
	"github.com/alvmarrod/cite-weaver/internal/paper"
	"github.com/alvmarrod/cite-weaver/internal/score"
)

// Kind tags the result of one walk step
type Kind int

const (
	// Restarted means the engine jumped back to a seed paper
	Restarted Kind = iota
	// InvalidReferences means the current paper had no reference with a DOI
	InvalidReferences
	// NewPaper means a reference was resolved, scored, and accepted
	NewPaper
	// PreviouslySeen means a reference pointed at a paper already in the canonical table
	PreviouslySeen
	// LowScoreRejected means a resolved reference scored at or below the reject threshold
	LowScoreRejected
)

var kindNames = map[Kind]string{
	Restarted:         "restarted",
	InvalidReferences: "invalid_references",
	NewPaper:          "new_paper",
	PreviouslySeen:    "previously_seen",
	LowScoreRejected:  "low_score_rejected",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds lists every outcome kind in declaration order
func Kinds() []Kind {
	return []Kind{Restarted, InvalidReferences, NewPaper, PreviouslySeen, LowScoreRejected}
}

// Outcome is the result of one completed walk step
type Outcome struct {
	Kind Kind

	// Paper is the new pointer, never nil
	Paper *paper.Paper

	// Parent is the pointer the step started from
	Parent *paper.Paper

	// Restart is true when Paper was reached by jumping rather than by
	// following a citation edge from Parent
	Restart bool

	// Candidate is the resolved reference that was scored, if any. For
	// LowScoreRejected it differs from Paper.
	Candidate *paper.Paper
	Score     *score.Components

	// Attempts is the number of reference draws made
	Attempts int

	// Resolutions and ResolveFailures count resolver calls made during the step
	Resolutions     int
	ResolveFailures int

	// Exhausted is set when every draw failed and the step fell back to a restart
	Exhausted bool

	// RestartProbability is p after the step
	RestartProbability float64
}
