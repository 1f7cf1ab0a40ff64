package paper

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Resolver looks up bibliographic metadata for a DOI.
// Implementations return errors wrapping ErrNotFound or ErrMalformed for
// expected failures, and must not retry on their own.
type Resolver interface {
	Resolve(ctx context.Context, doi string) (*RawRecord, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(ctx context.Context, doi string) (*RawRecord, error)

// Resolve calls f(ctx, doi)
func (f ResolverFunc) Resolve(ctx context.Context, doi string) (*RawRecord, error) {
	return f(ctx, doi)
}

// Resolve produces a Paper for doi through r, bounding the call by timeout
// when timeout > 0. Every failure is returned as a *ResolutionError.
func Resolve(ctx context.Context, r Resolver, doi string, timeout time.Duration) (*Paper, error) {
	key := NormalizeDOI(doi)
	if key == "" {
		return nil, &ResolutionError{DOI: doi, Err: fmt.Errorf("%w: empty DOI", ErrNotFound)}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rec, err := r.Resolve(ctx, key)
	if err != nil {
		return nil, &ResolutionError{DOI: key, Err: err}
	}
	if rec == nil {
		return nil, &ResolutionError{DOI: key, Err: fmt.Errorf("%w: empty response", ErrMalformed)}
	}

	// Catalogs sometimes answer with a redirected DOI; keep the one we asked for
	// when the record is silent about it.
	if rec.DOI == "" {
		cp := *rec
		cp.DOI = key
		rec = &cp
	}

	p, err := New(rec)
	if err != nil {
		return nil, &ResolutionError{DOI: key, Err: err}
	}
	return p, nil
}

// IsCanceled reports whether err came from the caller's context rather than
// from the catalog
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
