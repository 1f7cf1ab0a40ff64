package walk

import "fmt"

// Band is the confidence class of an accepted or rejected score
type Band int

const (
	BandReject Band = iota
	BandWeak
	BandNeutral
	BandStrong
)

func (b Band) String() string {
	switch b {
	case BandReject:
		return "reject"
	case BandWeak:
		return "weak"
	case BandNeutral:
		return "neutral"
	case BandStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// Policy maps the combined score of the last resolved paper to the restart
// probability used on the next step.
//
//	score <= RejectThreshold                 -> reject, p = RejectRestart
//	RejectThreshold < score < WeakThreshold  -> accept, p = WeakRestart
//	WeakThreshold <= score < StrongThreshold -> accept, p = NeutralRestart
//	score >= StrongThreshold                 -> accept, p = StrongRestart
type Policy struct {
	RejectThreshold float64
	WeakThreshold   float64
	StrongThreshold float64

	RejectRestart  float64
	WeakRestart    float64
	NeutralRestart float64
	StrongRestart  float64
}

// DefaultPolicy returns the 10/20/40 banding
func DefaultPolicy() Policy {
	return Policy{
		RejectThreshold: 10,
		WeakThreshold:   20,
		StrongThreshold: 40,
		RejectRestart:   0.15,
		WeakRestart:     0.8,
		NeutralRestart:  0.15,
		StrongRestart:   0.05,
	}
}

// Classify places a combined score in its band
func (p Policy) Classify(combined float64) Band {
	switch {
	case combined <= p.RejectThreshold:
		return BandReject
	case combined < p.WeakThreshold:
		return BandWeak
	case combined >= p.StrongThreshold:
		return BandStrong
	default:
		return BandNeutral
	}
}

// RestartFor returns the next restart probability for a band
func (p Policy) RestartFor(b Band) float64 {
	switch b {
	case BandReject:
		return p.RejectRestart
	case BandWeak:
		return p.WeakRestart
	case BandStrong:
		return p.StrongRestart
	default:
		return p.NeutralRestart
	}
}

// Validate checks threshold ordering and probability ranges
func (p Policy) Validate() error {
	if p.RejectThreshold > p.WeakThreshold || p.WeakThreshold > p.StrongThreshold {
		return fmt.Errorf("thresholds must satisfy reject <= weak <= strong (got %v, %v, %v)",
			p.RejectThreshold, p.WeakThreshold, p.StrongThreshold)
	}
	for name, v := range map[string]float64{
		"reject_restart":  p.RejectRestart,
		"weak_restart":    p.WeakRestart,
		"neutral_restart": p.NeutralRestart,
		"strong_restart":  p.StrongRestart,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, v)
		}
	}
	return nil
}
