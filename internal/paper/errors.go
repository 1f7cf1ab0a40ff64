package paper

import (
	"errors"
	"fmt"
)

// Resolution failure kinds.
var (
	// ErrNotFound indicates the DOI could not be resolved by the catalog.
	ErrNotFound = errors.New("DOI not found")

	// ErrMalformed indicates the catalog returned a record missing required fields.
	ErrMalformed = errors.New("malformed record")

	// ErrNoReferences indicates a paper carries no usable reference list.
	ErrNoReferences = errors.New("no resolvable references")
)

// ResolutionError ties a resolution failure to the DOI that caused it.
type ResolutionError struct {
	DOI string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.DOI, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates the DOI is unknown.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsMalformed returns true if the error indicates an unusable record.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}
