package paper

import (
	"regexp"
	"strings"
)

// Prefixes people paste in front of a bare DOI
var doiPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(dx\.)?doi\.org/`),
	regexp.MustCompile(`(?i)^doi:\s*`),
}

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// NormalizeDOI returns the canonical identity key for a DOI string.
// Whitespace and resolver URL prefixes are stripped and the result is
// lowercased, since DOIs are case-insensitive. Returns "" for empty input.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range doiPrefixes {
		doi = prefix.ReplaceAllString(doi, "")
	}
	return strings.ToLower(strings.TrimSpace(doi))
}

// IsWellFormedDOI checks the normalized DOI against the 10.<registrant>/<suffix> shape
func IsWellFormedDOI(doi string) bool {
	return doiPattern.MatchString(NormalizeDOI(doi))
}

// ResolvableStubs selects the stubs that carry a DOI, in their original order.
// Duplicate DOIs are kept so that a reference cited twice keeps its weight in
// a uniform draw.
func ResolvableStubs(stubs []Stub) []Stub {
	var filtered []Stub
	for _, s := range stubs {
		if !s.HasDOI() {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}
