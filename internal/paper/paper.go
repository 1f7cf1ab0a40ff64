package paper

import (
	"fmt"
	"strings"
)

// Paper is an immutable bibliographic record. Identity is the normalized DOI;
// two Papers with the same DOI are the same work even if their cached titles
// or authors differ.
type Paper struct {
	doi        string
	title      string
	authors    []Author
	year       int
	references []Stub
}

// New builds a Paper from a resolver record.
// Returns ErrMalformed when the record has no DOI, has neither a title nor
// authors to score, or has no usable year (explicit or creation date).
func New(rec *RawRecord) (*Paper, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrMalformed)
	}

	doi := NormalizeDOI(rec.DOI)
	if doi == "" {
		return nil, fmt.Errorf("%w: missing DOI", ErrMalformed)
	}

	title := firstTitle(rec.Titles)
	authors := familyAuthors(rec.Authors)
	if title == "" && len(authors) == 0 {
		return nil, fmt.Errorf("%w: %s has neither title nor authors", ErrMalformed, doi)
	}

	year := rec.Year
	if year <= 0 && !rec.Created.IsZero() {
		year = rec.Created.Year()
	}
	if year <= 0 {
		return nil, fmt.Errorf("%w: %s has no publication year", ErrMalformed, doi)
	}

	refs := make([]Stub, len(rec.References))
	copy(refs, rec.References)

	return &Paper{
		doi:        doi,
		title:      title,
		authors:    authors,
		year:       year,
		references: refs,
	}, nil
}

// firstTitle returns the first non-blank candidate title
func firstTitle(titles []string) string {
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return ""
}

// familyAuthors drops authors without a family name (consortia, blanks)
func familyAuthors(authors []Author) []Author {
	out := make([]Author, 0, len(authors))
	for _, a := range authors {
		a.Family = strings.TrimSpace(a.Family)
		if a.Family == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// DOI returns the identity key
func (p *Paper) DOI() string { return p.doi }

// Title returns the first candidate title, or ""
func (p *Paper) Title() string { return p.title }

// Year returns the publication year
func (p *Paper) Year() int { return p.year }

// Authors returns a copy of the ordered author list
func (p *Paper) Authors() []Author {
	out := make([]Author, len(p.authors))
	copy(out, p.authors)
	return out
}

// References returns a copy of the reference stubs
func (p *Paper) References() []Stub {
	out := make([]Stub, len(p.references))
	copy(out, p.references)
	return out
}

// ResolvableReferences returns the stubs that carry a DOI
func (p *Paper) ResolvableReferences() []Stub {
	return ResolvableStubs(p.references)
}

// Equal reports identity: papers are equal iff their DOIs are equal
func (p *Paper) Equal(other *Paper) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.doi == other.doi
}

// FirstAuthor returns the first author's family name, or ""
func (p *Paper) FirstAuthor() string {
	if len(p.authors) == 0 {
		return ""
	}
	return p.authors[0].Family
}

// LastAuthor returns the last author's family name when the paper has at
// least two authors, otherwise ""
func (p *Paper) LastAuthor() string {
	if len(p.authors) < 2 {
		return ""
	}
	return p.authors[len(p.authors)-1].Family
}

// MiddleAuthors returns family names between the first and last author
func (p *Paper) MiddleAuthors() []string {
	if len(p.authors) < 3 {
		return nil
	}
	names := make([]string, 0, len(p.authors)-2)
	for _, a := range p.authors[1 : len(p.authors)-1] {
		names = append(names, a.Family)
	}
	return names
}

// Name returns the display name used for DAG nodes and edges
func (p *Paper) Name() string {
	return DisplayName(p.FirstAuthor(), p.year, p.doi)
}

// String implements fmt.Stringer
func (p *Paper) String() string {
	return fmt.Sprintf("%s %q, %d references", p.Name(), p.title, len(p.references))
}

// DisplayName formats "<author> et al, <year> (<doi>)"
func DisplayName(firstAuthor string, year int, doi string) string {
	if firstAuthor == "" {
		firstAuthor = "Unknown"
	}
	return fmt.Sprintf("%s et al, %d (%s)", firstAuthor, year, doi)
}
