// Package paper defines the bibliographic record walked by the engine and the
// contract it needs from a metadata resolver.
package paper

import "time"

// Author is one entry of a paper's ordered author list
type Author struct {
	Given  string `json:"given,omitempty"`
	Family string `json:"family"`
}

// Stub is a reference harvested from citation metadata. It is not resolved
// until the walk chooses it, and any field may be empty.
type Stub struct {
	DOI    string `json:"doi,omitempty"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"` // family name of the first author, when known
	Year   int    `json:"year,omitempty"`
}

// HasDOI reports whether the stub can be resolved into a full Paper
func (s Stub) HasDOI() bool {
	return NormalizeDOI(s.DOI) != ""
}

// Label returns the best human-readable handle for log lines
func (s Stub) Label() string {
	switch {
	case s.Title != "":
		return s.Title
	case s.DOI != "":
		return s.DOI
	default:
		return "<untitled reference>"
	}
}

// RawRecord is what a resolver returns for a DOI
type RawRecord struct {
	DOI        string    `json:"doi"`
	Titles     []string  `json:"titles,omitempty"`
	Authors    []Author  `json:"authors,omitempty"`
	Year       int       `json:"year,omitempty"`
	Created    time.Time `json:"created,omitempty"`
	References []Stub    `json:"references,omitempty"`
}
