// Package corpus reads the tabular run inputs: seed DOIs, keyword weights,
// important authors and the tag vocabulary.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alvmarrod/cite-weaver/internal/dag"
	"github.com/alvmarrod/cite-weaver/internal/paper"
	"github.com/alvmarrod/cite-weaver/internal/score"
	"github.com/sirupsen/logrus"
)

// Column names expected in the header row
const (
	ColumnDOI      = "DOI"
	ColumnKeyterms = "keyterms"
	ColumnValue    = "value"
	ColumnAuthor   = "author"
	ColumnTerm     = "term"
	ColumnTag      = "tag"
)

// ErrMissingColumn is returned when a required header is absent
var ErrMissingColumn = errors.New("missing column")

// table is a header-indexed CSV file
type table struct {
	path   string
	header map[string]int
	rows   [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return parseTable(path, f)
}

func parseTable(path string, r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return &table{path: path, header: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	t := &table{path: path, header: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		t.header[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// column returns the index of a required column
func (t *table) column(name string) (int, error) {
	i, ok := t.header[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%s: %w %q", t.path, ErrMissingColumn, name)
	}
	return i, nil
}

// cell returns the trimmed value or "" for short rows
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadSeedDOIs returns the normalized, de-duplicated seed DOIs in file order
func ReadSeedDOIs(path string) ([]string, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(t.rows) == 0 {
		return nil, nil
	}
	col, err := t.column(ColumnDOI)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var dois []string
	for n, row := range t.rows {
		doi := paper.NormalizeDOI(cell(row, col))
		if doi == "" || seen[doi] {
			continue
		}
		if !paper.IsWellFormedDOI(doi) {
			logrus.Warnf("%s line %d: %q does not look like a DOI, keeping it anyway", path, n+2, doi)
		}
		seen[doi] = true
		dois = append(dois, doi)
	}
	return dois, nil
}

// ReadKeywords reads the keyword weight table. An empty path yields no keywords.
func ReadKeywords(path string) ([]score.Keyword, error) {
	if path == "" {
		return nil, nil
	}
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(t.rows) == 0 {
		return nil, nil
	}
	termCol, err := t.column(ColumnKeyterms)
	if err != nil {
		return nil, err
	}
	valueCol, err := t.column(ColumnValue)
	if err != nil {
		return nil, err
	}

	var keywords []score.Keyword
	for n, row := range t.rows {
		term := cell(row, termCol)
		if term == "" {
			continue
		}
		weight, err := strconv.ParseFloat(cell(row, valueCol), 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid weight for %q: %w", path, n+2, term, err)
		}
		keywords = append(keywords, score.Keyword{Term: term, Weight: weight})
	}
	return keywords, nil
}

// ReadAuthors reads the important-author family names. An empty path yields none.
func ReadAuthors(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(t.rows) == 0 {
		return nil, nil
	}
	col, err := t.column(ColumnAuthor)
	if err != nil {
		return nil, err
	}

	var authors []string
	for _, row := range t.rows {
		if a := cell(row, col); a != "" {
			authors = append(authors, a)
		}
	}
	return authors, nil
}

// ReadTags reads the term->tag vocabulary. An empty path yields none.
func ReadTags(path string) ([]dag.TagTerm, error) {
	if path == "" {
		return nil, nil
	}
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(t.rows) == 0 {
		return nil, nil
	}
	termCol, err := t.column(ColumnTerm)
	if err != nil {
		return nil, err
	}
	tagCol, err := t.column(ColumnTag)
	if err != nil {
		return nil, err
	}

	var terms []dag.TagTerm
	for _, row := range t.rows {
		term, tag := cell(row, termCol), cell(row, tagCol)
		if term == "" || tag == "" {
			continue
		}
		terms = append(terms, dag.TagTerm{Term: term, Tag: tag})
	}
	return terms, nil
}
