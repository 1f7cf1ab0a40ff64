package export

import (
	"github.com/alvmarrod/cite-weaver/internal/dag"
	"github.com/sirupsen/logrus"
)

// LogTop logs the n most frequently visited non-seed papers
func LogTop(snap *dag.Snapshot, n int) {
	top := snap.Top(n)
	if len(top) == 0 {
		logrus.Info("No papers discovered beyond the seed corpus")
		return
	}
	logrus.Infof("Top %d discovered papers:", len(top))
	for i, node := range top {
		logrus.Infof("%3d. %-4d %s %q", i+1, node.Frequency, node.Name, node.Title)
	}
}
