package score

import (
	"fmt"
	"testing"

	"github.com/alvmarrod/cite-weaver/internal/paper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaper(t *testing.T, title string, authors ...string) *paper.Paper {
	t.Helper()
	rec := &paper.RawRecord{DOI: "10.1/x", Year: 2020}
	if title != "" {
		rec.Titles = []string{title}
	}
	for _, a := range authors {
		rec.Authors = append(rec.Authors, paper.Author{Family: a})
	}
	p, err := paper.New(rec)
	require.NoError(t, err)
	return p
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "muller", Normalize("Müller"))
	assert.Equal(t, "pharmacocinetique", Normalize("  PHARMACOCINÉTIQUE "))
	assert.Equal(t, "beta lactam", Normalize("Beta   Lactam"))
	assert.Equal(t, "", Normalize(""))
}

func TestTitleScore(t *testing.T) {
	s, err := NewScorer([]Keyword{
		{Term: "Pharmacokinetics", Weight: 3},
		{Term: "antimicrobial", Weight: 2},
		{Term: "  ", Weight: 100},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.KeywordCount())

	tests := []struct {
		title string
		want  float64
	}{
		{"Population PHARMACOKINETICS of vancomycin", 3},
		{"Antimicrobial pharmacokinetics in ICU", 5},
		{"Antimicrobial résistance", 2},
		{"Unrelated title", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.TitleScore(tt.title), tt.title)
	}
}

func TestNewScorer_RejectsNegativeWeight(t *testing.T) {
	_, err := NewScorer([]Keyword{{Term: "bad", Weight: -1}}, nil)
	assert.Error(t, err)
}

func TestAuthorScore(t *testing.T) {
	s, err := NewScorer(nil, []string{"Gerada", "Reza", "Müller"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		authors []string
		want    float64
	}{
		{"first only", []string{"Gerada", "Nobody"}, FirstAuthorPoints},
		{"last only", []string{"Nobody", "Reza"}, LastAuthorPoints},
		{"first and last", []string{"Gerada", "Nobody", "Reza"}, FirstAuthorPoints + LastAuthorPoints},
		{"co-author", []string{"Nobody", "Muller", "Other"}, CoauthorPoints},
		{"single important author counts once", []string{"Gerada"}, FirstAuthorPoints},
		{"no authors", nil, 0},
		{"accent insensitive", []string{"MULLER", "x"}, FirstAuthorPoints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPaper(t, "Some title", tt.authors...)
			assert.Equal(t, tt.want, s.AuthorScore(p))
		})
	}
}

func TestAuthorScore_Capped(t *testing.T) {
	var important, authors []string
	for i := 0; i < 60; i++ {
		name := fmt.Sprintf("Author%02d", i)
		important = append(important, name)
		authors = append(authors, name)
	}
	s, err := NewScorer(nil, important)
	require.NoError(t, err)

	assert.Equal(t, MaxAuthorScore, s.AuthorScore(newPaper(t, "T", authors...)))
}

func TestScore_Combined(t *testing.T) {
	s, err := NewScorer([]Keyword{{Term: "sepsis", Weight: 4}}, []string{"Gerada"})
	require.NoError(t, err)

	c := s.Score(newPaper(t, "Sepsis outcomes", "Gerada", "Other"))
	assert.Equal(t, 4.0, c.Title)
	assert.Equal(t, FirstAuthorPoints, c.Author)
	assert.Equal(t, 3*4.0+FirstAuthorPoints, c.Combined)
}

func TestScore_MonotonicInMatches(t *testing.T) {
	keywords := []Keyword{{"alpha", 1}, {"beta", 0}, {"gamma", 2.5}}
	s, err := NewScorer(keywords, []string{"A", "B", "C", "D"})
	require.NoError(t, err)

	titles := []string{"none", "alpha", "alpha beta", "alpha beta gamma"}
	prev := -1.0
	for _, title := range titles {
		got := s.Score(newPaper(t, title, "Z", "Y")).Combined
		assert.GreaterOrEqual(t, got, prev, title)
		prev = got
	}

	authorSets := [][]string{
		{"Z", "Y", "X"},
		{"A", "Y", "X"},
		{"A", "B", "X"},
		{"A", "B", "C"},
	}
	prev = -1.0
	for _, authors := range authorSets {
		got := s.Score(newPaper(t, "none", authors...)).Combined
		assert.GreaterOrEqual(t, got, prev, authors)
		prev = got
	}
}

func TestScore_EmptyTables(t *testing.T) {
	s, err := NewScorer(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Components{}, s.Score(newPaper(t, "Anything", "Anyone")))
}

func TestAddImportantAuthor(t *testing.T) {
	s, err := NewScorer(nil, nil)
	require.NoError(t, err)
	s.AddImportantAuthor("Gerada")
	s.AddImportantAuthor("gerada")
	s.AddImportantAuthor("")
	assert.Equal(t, 1, s.ImportantAuthorCount())
}
