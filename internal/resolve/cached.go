// Package resolve provides resolver decorators and an offline resolver.
package resolve

import (
	"context"
	"sync"

	"github.com/alvmarrod/cite-weaver/internal/paper"
	"github.com/sirupsen/logrus"
)

// RecordCache stores raw records by normalized DOI.
// GetRecord returns nil, nil on a miss.
type RecordCache interface {
	GetRecord(doi string) (*paper.RawRecord, error)
	PutRecord(doi string, rec *paper.RawRecord) error
}

// Cached serves records from a cache and fills it from the next resolver.
// Failed lookups are not cached.
type Cached struct {
	next  paper.Resolver
	cache RecordCache

	mu     sync.Mutex
	hits   int
	misses int
}

var _ paper.Resolver = (*Cached)(nil)

// NewCached wraps next with cache
func NewCached(next paper.Resolver, cache RecordCache) *Cached {
	return &Cached{next: next, cache: cache}
}

// Resolve implements paper.Resolver
func (c *Cached) Resolve(ctx context.Context, doi string) (*paper.RawRecord, error) {
	rec, err := c.cache.GetRecord(doi)
	if err != nil {
		logrus.WithField("doi", doi).Warnf("Record cache read failed: %v", err)
	}
	if rec != nil {
		c.count(true)
		return rec, nil
	}

	c.count(false)
	rec, err = c.next.Resolve(ctx, doi)
	if err != nil {
		return nil, err
	}

	if rec != nil {
		if err := c.cache.PutRecord(doi, rec); err != nil {
			logrus.WithField("doi", doi).Warnf("Record cache write failed: %v", err)
		}
	}
	return rec, nil
}

func (c *Cached) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

// Stats returns cache hits and misses so far
func (c *Cached) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
