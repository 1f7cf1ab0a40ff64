package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/alvmarrod/cite-weaver/internal/storage"
	"github.com/alvmarrod/cite-weaver/internal/walk"
)

// Tracker holds and manages walk metrics
type Tracker struct {
	mu              sync.Mutex
	data            storage.Metrics
	totalStepTimeMs int64
	stepCount       int
	lastStep        time.Time
}

// NewTracker creates a new metrics tracker
func NewTracker(runID string) *Tracker {
	now := time.Now()
	outcomes := make(map[string]int)
	for _, k := range walk.Kinds() {
		outcomes[k.String()] = 0
	}
	return &Tracker{
		data: storage.Metrics{
			RunID:     runID,
			StartTime: now,
			Outcomes:  outcomes,
		},
		lastStep: now,
	}
}

// Observe records one completed step. It is installed as the session observer.
func (t *Tracker) Observe(o walk.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.totalStepTimeMs += now.Sub(t.lastStep).Milliseconds()
	t.stepCount++
	t.lastStep = now

	t.data.Steps++
	t.data.Outcomes[o.Kind.String()]++
	t.data.Resolutions += o.Resolutions
	t.data.ResolveFailures += o.ResolveFailures
	t.data.FinalRestartP = o.RestartProbability
	if o.Exhausted {
		t.data.ExhaustedSteps++
	}
}

// MarkStarted resets the step clock once seeding is over
func (t *Tracker) MarkStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastStep = time.Now()
}

// SetGraphSize records the accumulator size
func (t *Tracker) SetGraphSize(nodes, edges int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.NodesDiscovered = nodes
	t.data.EdgesRecorded = edges
}

// GetSnapshot returns a copy of current metrics
func (t *Tracker) GetSnapshot() storage.Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() storage.Metrics {
	snapshot := t.data
	snapshot.Outcomes = make(map[string]int, len(t.data.Outcomes))
	for k, v := range t.data.Outcomes {
		snapshot.Outcomes[k] = v
	}
	snapshot.TotalStepTimeMs = t.totalStepTimeMs
	if t.stepCount > 0 {
		snapshot.AvgStepTimeMs = t.totalStepTimeMs / int64(t.stepCount)
	}
	return snapshot
}

// WriteToFile exports metrics to a JSON file
func (t *Tracker) WriteToFile(path, reason string) error {
	t.mu.Lock()
	t.data.EndTime = time.Now()
	t.data.TerminationReason = reason
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	jsonData, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}

// LogProgress formats current metrics for periodic console updates
func (t *Tracker) LogProgress() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return fmt.Sprintf("Steps: %d | New: %d, seen: %d, rejected: %d, restarts: %d, invalid: %d | Resolutions: %d (%d failed) | p=%.2f",
		t.data.Steps,
		t.data.Outcomes[walk.NewPaper.String()],
		t.data.Outcomes[walk.PreviouslySeen.String()],
		t.data.Outcomes[walk.LowScoreRejected.String()],
		t.data.Outcomes[walk.Restarted.String()],
		t.data.Outcomes[walk.InvalidReferences.String()],
		t.data.Resolutions,
		t.data.ResolveFailures,
		t.data.FinalRestartP,
	)
}
