// Package walk implements the biased random walk over citation edges.
package walk

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/alvmarrod/cite-weaver/internal/paper"
	"github.com/alvmarrod/cite-weaver/internal/score"
	"github.com/sirupsen/logrus"
)

// ErrEmptySeedSet aborts a run: there is no paper to start from or restart to
var ErrEmptySeedSet = errors.New("seed corpus is empty or entirely unresolvable")

const (
	// DefaultMaxAttempts is the number of reference draws per step
	DefaultMaxAttempts = 10

	// DefaultRestartProbability is p before any score has been observed
	DefaultRestartProbability = 0.15
)

// Rand is the randomness the engine consumes. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Options configures a Session
type Options struct {
	Resolver paper.Resolver
	Scorer   *score.Scorer
	Policy   Policy
	Rand     Rand

	MaxAttempts        int
	RestartProbability float64
	ResolveTimeout     time.Duration

	// SeedAuthorsImportant adds each seed's first author to the scorer
	SeedAuthorsImportant bool

	// Observer is called after every completed step
	Observer func(Outcome)
}

// Session owns all walk state: the seed pool, the canonical DOI->Paper table,
// the current pointer and the adaptive restart probability. It is not safe
// for concurrent use.
type Session struct {
	resolver    paper.Resolver
	scorer      *score.Scorer
	policy      Policy
	rng         Rand
	maxAttempts int
	timeout     time.Duration
	observer    func(Outcome)
	seedAuthors bool

	restartP float64

	seeds    []*paper.Paper
	seedSet  map[string]bool
	known    map[string]*paper.Paper // canonical instance per DOI, seeds included
	order    []*paper.Paper          // known papers in first-seen order
	rejected map[string]score.Components
	current  *paper.Paper
}

// NewSession validates options and applies defaults
func NewSession(opts Options) (*Session, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if opts.Scorer == nil {
		scorer, err := score.NewScorer(nil, nil)
		if err != nil {
			return nil, err
		}
		opts.Scorer = scorer
	}
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RestartProbability < 0 || opts.RestartProbability > 1 {
		return nil, fmt.Errorf("restart probability must be within [0,1], got %v", opts.RestartProbability)
	}

	return &Session{
		resolver:    opts.Resolver,
		scorer:      opts.Scorer,
		policy:      opts.Policy,
		rng:         opts.Rand,
		maxAttempts: opts.MaxAttempts,
		timeout:     opts.ResolveTimeout,
		observer:    opts.Observer,
		seedAuthors: opts.SeedAuthorsImportant,
		restartP:    opts.RestartProbability,
		seedSet:     make(map[string]bool),
		known:       make(map[string]*paper.Paper),
		rejected:    make(map[string]score.Components),
	}, nil
}

// Seed resolves the seed DOIs. Unresolvable seeds are skipped with a warning;
// if none resolve, ErrEmptySeedSet is returned.
func (s *Session) Seed(ctx context.Context, dois []string) (int, error) {
	var resolved []*paper.Paper
	for _, doi := range dois {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		p, err := paper.Resolve(ctx, s.resolver, doi, s.timeout)
		if err != nil {
			logrus.WithField("doi", doi).Warnf("Skipping seed: %v", err)
			continue
		}
		logrus.WithField("doi", p.DOI()).Infof("Seed resolved: %s", p.Name())
		resolved = append(resolved, p)
	}

	added := s.AddSeeds(resolved...)
	if len(s.seeds) == 0 {
		return 0, fmt.Errorf("%w (%d DOIs supplied)", ErrEmptySeedSet, len(dois))
	}
	return added, nil
}

// AddSeeds registers already-resolved seed papers and returns how many were new.
// The pointer starts at a uniformly chosen seed.
func (s *Session) AddSeeds(papers ...*paper.Paper) int {
	added := 0
	for _, p := range papers {
		if p == nil || s.seedSet[p.DOI()] {
			continue
		}
		s.seedSet[p.DOI()] = true
		s.seeds = append(s.seeds, p)
		s.remember(p)
		if s.seedAuthors {
			s.scorer.AddImportantAuthor(p.FirstAuthor())
		}
		added++
	}
	if s.current == nil && len(s.seeds) > 0 {
		s.current = s.pickSeed()
	}
	return added
}

// remember stores p as the canonical instance for its DOI
func (s *Session) remember(p *paper.Paper) *paper.Paper {
	if existing, ok := s.known[p.DOI()]; ok {
		return existing
	}
	s.known[p.DOI()] = p
	s.order = append(s.order, p)
	return p
}

// Step executes one transition and moves the pointer
func (s *Session) Step(ctx context.Context) Outcome {
	cur := s.current
	out := Outcome{Parent: cur}
	log := logrus.WithField("current", cur.DOI())

	refs := cur.References()
	switch {
	case len(cur.ResolvableReferences()) == 0:
		log.Infof("No resolvable references on %q", cur.Title())
		out.Kind = InvalidReferences
		out.Paper = s.pickKnown()
		out.Restart = true

	case s.rng.Float64() < s.restartP:
		out.Kind = Restarted
		out.Paper = s.pickSeed()
		out.Restart = true

	default:
		s.follow(ctx, refs, &out, log)
	}

	s.current = out.Paper
	out.RestartProbability = s.restartP

	log.WithFields(logrus.Fields{
		"kind":     out.Kind.String(),
		"next":     out.Paper.DOI(),
		"attempts": out.Attempts,
		"p":        out.RestartProbability,
	}).Info("Step complete")

	if s.observer != nil {
		s.observer(out)
	}
	return out
}

// follow draws up to maxAttempts references and fills out
func (s *Session) follow(ctx context.Context, refs []paper.Stub, out *Outcome, log *logrus.Entry) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		out.Attempts = attempt
		stub := refs[s.rng.Intn(len(refs))]

		if !stub.HasDOI() {
			log.Debugf("Attempt %d: no DOI for %s", attempt, stub.Label())
			continue
		}
		doi := paper.NormalizeDOI(stub.DOI)

		if p, ok := s.known[doi]; ok {
			log.Debugf("Attempt %d: already seen %s", attempt, doi)
			out.Kind = PreviouslySeen
			out.Paper = p
			return
		}

		if comps, ok := s.rejected[doi]; ok {
			log.Debugf("Attempt %d: %s was rejected before (score %.2f)", attempt, doi, comps.Combined)
			s.reject(out, comps)
			return
		}

		out.Resolutions++
		p, err := paper.Resolve(ctx, s.resolver, doi, s.timeout)
		if err != nil {
			out.ResolveFailures++
			log.WithField("doi", doi).Warnf("Attempt %d: skipping reference: %v", attempt, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		// The catalog may answer under an alias of a DOI we already hold
		if canonical, ok := s.known[p.DOI()]; ok {
			out.Kind = PreviouslySeen
			out.Paper = canonical
			return
		}

		comps := s.scorer.Score(p)
		out.Candidate = p
		out.Score = &comps

		band := s.policy.Classify(comps.Combined)
		if band == BandReject {
			log.WithField("doi", p.DOI()).Infof("Low score %.2f, likely irrelevant", comps.Combined)
			s.rejected[doi] = comps
			s.reject(out, comps)
			return
		}

		s.restartP = s.policy.RestartFor(band)
		out.Kind = NewPaper
		out.Paper = s.remember(p)
		log.WithFields(logrus.Fields{"doi": p.DOI(), "score": comps.Combined, "band": band.String()}).
			Infof("New paper: %s", p.Name())
		return
	}

	out.Kind = Restarted
	out.Paper = s.pickSeed()
	out.Restart = true
	out.Exhausted = true
}

func (s *Session) reject(out *Outcome, comps score.Components) {
	if out.Score == nil {
		out.Score = &comps
	}
	s.restartP = s.policy.RejectRestart
	out.Kind = LowScoreRejected
	out.Paper = s.pickKnown()
	out.Restart = true
}

func (s *Session) pickSeed() *paper.Paper {
	return s.seeds[s.rng.Intn(len(s.seeds))]
}

// pickKnown draws uniformly from seeds and every accepted paper
func (s *Session) pickKnown() *paper.Paper {
	return s.order[s.rng.Intn(len(s.order))]
}

// Current returns the pointer
func (s *Session) Current() *paper.Paper { return s.current }

// RestartProbability returns the current p
func (s *Session) RestartProbability() float64 { return s.restartP }

// Seeds returns the seed papers in registration order
func (s *Session) Seeds() []*paper.Paper {
	out := make([]*paper.Paper, len(s.seeds))
	copy(out, s.seeds)
	return out
}

// IsSeed reports whether doi belongs to the seed set
func (s *Session) IsSeed(doi string) bool {
	return s.seedSet[paper.NormalizeDOI(doi)]
}

// Lookup returns the canonical paper for doi, if seen
func (s *Session) Lookup(doi string) (*paper.Paper, bool) {
	p, ok := s.known[paper.NormalizeDOI(doi)]
	return p, ok
}

// KnownCount returns the size of the canonical table
func (s *Session) KnownCount() int { return len(s.order) }
