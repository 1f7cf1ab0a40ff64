package dag

import (
	"sort"
	"strings"

	"github.com/alvmarrod/cite-weaver/internal/score"
)

// MixedTag is the display tag for nodes carrying more than one distinct tag
const MixedTag = "mixed"

// TagTerm maps a title term to a category tag
type TagTerm struct {
	Term string
	Tag  string
}

// Vocabulary is the controlled term->tag table used to label nodes
type Vocabulary struct {
	terms []TagTerm // terms normalized
}

// NewVocabulary normalizes terms; blank terms or tags are dropped
func NewVocabulary(terms []TagTerm) *Vocabulary {
	v := &Vocabulary{}
	for _, t := range terms {
		term := score.Normalize(t.Term)
		if term == "" || t.Tag == "" {
			continue
		}
		v.terms = append(v.terms, TagTerm{Term: term, Tag: t.Tag})
	}
	return v
}

// Len returns the number of usable terms
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.terms)
}

// Tags returns the distinct tags whose term occurs in title, sorted
func (v *Vocabulary) Tags(title string) []string {
	if v.Len() == 0 || title == "" {
		return nil
	}
	norm := score.Normalize(title)

	seen := make(map[string]bool)
	var tags []string
	for _, t := range v.terms {
		if seen[t.Tag] || !strings.Contains(norm, t.Term) {
			continue
		}
		seen[t.Tag] = true
		tags = append(tags, t.Tag)
	}
	sort.Strings(tags)
	return tags
}

// DisplayTag collapses a tag list to the single label used for coloring
func DisplayTag(tags []string) string {
	switch len(tags) {
	case 0:
		return ""
	case 1:
		return tags[0]
	default:
		return MixedTag
	}
}
