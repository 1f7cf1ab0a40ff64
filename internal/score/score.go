// Package score computes the relevance of a paper against keyword and
// important-author weight tables.
package score

import (
	"fmt"
	"strings"

	"github.com/alvmarrod/cite-weaver/internal/paper"
)

const (
	// MaxAuthorScore caps the author component
	MaxAuthorScore = 25.0

	// FirstAuthorPoints is awarded when the first author is important
	FirstAuthorPoints = MaxAuthorScore * 0.375

	// LastAuthorPoints is awarded when the last author is important
	LastAuthorPoints = MaxAuthorScore * 0.375

	// CoauthorPoints is awarded per important author between first and last
	CoauthorPoints = 0.25

	// TitleMultiplier weights the title component in the combined score
	TitleMultiplier = 3.0
)

// Keyword is one row of the keyword weight table
type Keyword struct {
	Term   string
	Weight float64
}

// Components is the breakdown of a paper's relevance
type Components struct {
	Title    float64 `json:"title"`
	Author   float64 `json:"author"`
	Combined float64 `json:"combined"`
}

// Scorer holds normalized weight tables. It is safe for concurrent use once built.
type Scorer struct {
	keywords []Keyword
	authors  map[string]bool
}

// NewScorer normalizes the tables. Blank terms and names are ignored;
// negative weights are rejected since they would make the score
// non-monotonic in the number of matches.
func NewScorer(keywords []Keyword, importantAuthors []string) (*Scorer, error) {
	s := &Scorer{
		keywords: make([]Keyword, 0, len(keywords)),
		authors:  make(map[string]bool, len(importantAuthors)),
	}

	for _, k := range keywords {
		if k.Weight < 0 {
			return nil, fmt.Errorf("keyword %q has negative weight %v", k.Term, k.Weight)
		}
		term := Normalize(k.Term)
		if term == "" {
			continue
		}
		s.keywords = append(s.keywords, Keyword{Term: term, Weight: k.Weight})
	}

	for _, a := range importantAuthors {
		s.AddImportantAuthor(a)
	}

	return s, nil
}

// AddImportantAuthor extends the important-author list
func (s *Scorer) AddImportantAuthor(family string) {
	if name := Normalize(family); name != "" {
		s.authors[name] = true
	}
}

// ImportantAuthorCount returns the number of distinct important authors
func (s *Scorer) ImportantAuthorCount() int {
	return len(s.authors)
}

// KeywordCount returns the number of usable keywords
func (s *Scorer) KeywordCount() int {
	return len(s.keywords)
}

// TitleScore sums the weights of every keyword found in the title
func (s *Scorer) TitleScore(title string) float64 {
	title = Normalize(title)
	if title == "" {
		return 0
	}

	total := 0.0
	for _, k := range s.keywords {
		if strings.Contains(title, k.Term) {
			total += k.Weight
		}
	}
	return total
}

// AuthorScore rewards important first, last, and middle authors, capped at MaxAuthorScore
func (s *Scorer) AuthorScore(p *paper.Paper) float64 {
	if len(s.authors) == 0 {
		return 0
	}

	total := 0.0
	if s.isImportant(p.FirstAuthor()) {
		total += FirstAuthorPoints
	}
	if s.isImportant(p.LastAuthor()) {
		total += LastAuthorPoints
	}
	for _, name := range p.MiddleAuthors() {
		if s.isImportant(name) {
			total += CoauthorPoints
		}
	}

	if total > MaxAuthorScore {
		total = MaxAuthorScore
	}
	return total
}

func (s *Scorer) isImportant(family string) bool {
	name := Normalize(family)
	return name != "" && s.authors[name]
}

// Score computes all components for p
func (s *Scorer) Score(p *paper.Paper) Components {
	c := Components{
		Title:  s.TitleScore(p.Title()),
		Author: s.AuthorScore(p),
	}
	c.Combined = TitleMultiplier*c.Title + c.Author
	return c
}
