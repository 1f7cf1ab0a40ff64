package walk

import (
	"context"

	"github.com/alvmarrod/cite-weaver/internal/paper"
	"github.com/sirupsen/logrus"
)

// Recorder receives the seed set once and every completed step in order
type Recorder interface {
	RecordSeed(p *paper.Paper)
	Record(o Outcome)
}

// Run drives the walk for the given step budget. It returns the number of
// steps completed. The only error before the loop is ErrEmptySeedSet; a
// canceled context stops the loop between steps and is returned as is, with
// everything recorded so far left in rec.
func (s *Session) Run(ctx context.Context, iterations int, rec Recorder) (int, error) {
	if len(s.seeds) == 0 {
		return 0, ErrEmptySeedSet
	}

	for _, p := range s.seeds {
		rec.RecordSeed(p)
	}

	logrus.Infof("Walking %d steps from %d seeds (p=%.2f)", iterations, len(s.seeds), s.restartP)

	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			logrus.Warnf("Walk interrupted after %d/%d steps: %v", i, iterations, err)
			return i, err
		}
		logrus.Debugf("Iteration %d", i)
		rec.Record(s.Step(ctx))
	}

	return iterations, nil
}
