// Package crossref resolves DOIs against the Crossref works API.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/alvmarrod/cite-weaver/internal/paper"
	"github.com/alvmarrod/cite-weaver/internal/version"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the public Crossref REST API
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout bounds a single request
	DefaultTimeout = 15 * time.Second

	// RateLimit is requests per second; the public pool tolerates bursts of about 50
	RateLimit = 5.0
)

// Client is a rate-limited Crossref client. It never retries: a failed
// lookup is reported once and the walk moves on.
type Client struct {
	base    *colly.Collector
	limiter *rate.Limiter
	baseURL string
	mailto  string
	timeout time.Duration
}

var _ paper.Resolver = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithMailto sets the polite-pool contact address.
func WithMailto(addr string) ClientOption {
	return func(c *Client) {
		c.mailto = addr
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit sets requests per second; values <= 0 disable pacing.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates a new Crossref client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		limiter: rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL: BaseURL,
		timeout: DefaultTimeout,
	}

	if addr := os.Getenv("CROSSREF_MAILTO"); addr != "" {
		c.mailto = addr
	}

	for _, opt := range opts {
		opt(c)
	}

	c.base = colly.NewCollector(
		colly.UserAgent(c.userAgent()),
		colly.AllowURLRevisit(),
	)
	c.base.SetRequestTimeout(c.timeout)

	return c
}

func (c *Client) userAgent() string {
	ua := "cite-weaver/" + version.Version
	if c.mailto != "" {
		ua += " (mailto:" + c.mailto + ")"
	}
	return ua
}

// WorkURL returns the works endpoint for doi
func (c *Client) WorkURL(doi string) string {
	u := c.baseURL + "/works/" + url.PathEscape(doi)
	if c.mailto != "" {
		u += "?mailto=" + url.QueryEscape(c.mailto)
	}
	return u
}

// Resolve fetches the works record for doi
func (c *Client) Resolve(ctx context.Context, doi string) (*paper.RawRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	col := c.base.Clone()
	col.Context = ctx

	var (
		body   []byte
		status int
	)

	col.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/json")
	})

	col.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	col.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	target := c.WorkURL(doi)
	start := time.Now()
	err := col.Visit(target)
	log := logrus.WithFields(logrus.Fields{"doi": doi, "status": status, "elapsed": time.Since(start)})

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	switch {
	case status == http.StatusNotFound:
		log.Debug("Crossref has no record")
		return nil, fmt.Errorf("%w: %s", paper.ErrNotFound, doi)
	case err != nil:
		log.Debugf("Crossref request failed: %v", err)
		return nil, fmt.Errorf("crossref request for %s failed: %w", doi, err)
	}

	log.Debug("Crossref record fetched")
	return decodeWork(body)
}

func decodeWork(body []byte) (*paper.RawRecord, error) {
	var resp workResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", paper.ErrMalformed, err)
	}
	if resp.MessageType != "work" || resp.Message == nil {
		return nil, fmt.Errorf("%w: unexpected message type %q", paper.ErrMalformed, resp.MessageType)
	}
	return resp.Message.toRecord(), nil
}
