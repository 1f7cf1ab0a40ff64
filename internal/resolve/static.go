package resolve

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alvmarrod/cite-weaver/internal/paper"
)

// MaxLineCapacity bounds a single JSONL record (1MB)
const MaxLineCapacity = 1024 * 1024

// Static resolves DOIs from an in-memory record set. It backs offline runs
// and tests.
type Static struct {
	byDOI map[string]*paper.RawRecord
}

var _ paper.Resolver = (*Static)(nil)

// NewStatic indexes records by normalized DOI; later duplicates win
func NewStatic(records ...*paper.RawRecord) *Static {
	s := &Static{byDOI: make(map[string]*paper.RawRecord, len(records))}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if doi := paper.NormalizeDOI(rec.DOI); doi != "" {
			s.byDOI[doi] = rec
		}
	}
	return s
}

// LoadStatic reads one JSON record per line
func LoadStatic(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening records file: %w", err)
	}
	defer f.Close()

	var records []*paper.RawRecord
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxLineCapacity)
	scanner.Buffer(buf, MaxLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec paper.RawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		records = append(records, &rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading records file: %w", err)
	}

	return NewStatic(records...), nil
}

// Len returns the number of indexed records
func (s *Static) Len() int { return len(s.byDOI) }

// Resolve implements paper.Resolver
func (s *Static) Resolve(ctx context.Context, doi string) (*paper.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := s.byDOI[paper.NormalizeDOI(doi)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", paper.ErrNotFound, doi)
	}
	return rec, nil
}
