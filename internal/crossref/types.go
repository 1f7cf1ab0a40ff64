package crossref

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alvmarrod/cite-weaver/internal/paper"
)

// workResponse is the envelope of GET /works/{doi}
type workResponse struct {
	Status      string `json:"status"`
	MessageType string `json:"message-type"`
	Message     *work  `json:"message"`
}

type work struct {
	DOI       string      `json:"DOI"`
	Title     []string    `json:"title"`
	Author    []author    `json:"author"`
	Issued    dateParts   `json:"issued"`
	Created   dateTime    `json:"created"`
	Reference []reference `json:"reference"`
}

type author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"` // organizations carry only a name
}

type dateParts struct {
	DateParts [][]*int `json:"date-parts"`
}

type dateTime struct {
	DateTime string `json:"date-time"`
}

type reference struct {
	Key          string `json:"key"`
	DOI          string `json:"DOI"`
	ArticleTitle string `json:"article-title"`
	Author       string `json:"author"`
	Year         string `json:"year"`
	Unstructured string `json:"unstructured"`
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// parseYear extracts the first four-digit run, so "2001a" and "(2001)" both work
func parseYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

func (d dateParts) year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] == nil {
		return 0
	}
	return *d.DateParts[0][0]
}

// toRecord maps a works message onto the resolver contract
func (w *work) toRecord() *paper.RawRecord {
	rec := &paper.RawRecord{
		DOI:  w.DOI,
		Year: w.Issued.year(),
	}

	for _, t := range w.Title {
		if t = strings.TrimSpace(t); t != "" {
			rec.Titles = append(rec.Titles, t)
		}
	}

	for _, a := range w.Author {
		family := a.Family
		if family == "" {
			family = a.Name
		}
		if family == "" {
			continue
		}
		rec.Authors = append(rec.Authors, paper.Author{Given: a.Given, Family: family})
	}

	if w.Created.DateTime != "" {
		if ts, err := time.Parse(time.RFC3339, w.Created.DateTime); err == nil {
			rec.Created = ts
		}
	}

	for _, r := range w.Reference {
		title := r.ArticleTitle
		if title == "" {
			title = r.Unstructured
		}
		rec.References = append(rec.References, paper.Stub{
			DOI:    r.DOI,
			Title:  title,
			Author: r.Author,
			Year:   parseYear(r.Year),
		})
	}

	return rec
}
