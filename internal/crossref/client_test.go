package crossref

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alvmarrod/cite-weaver/internal/paper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWork = `{
  "status": "ok",
  "message-type": "work",
  "message": {
    "DOI": "10.1000/xyz123",
    "title": ["Random walks on citation graphs", "Alt title"],
    "author": [
      {"given": "Ada", "family": "Lovelace"},
      {"name": "The Consortium"},
      {"given": "Alan", "family": "Turing"}
    ],
    "issued": {"date-parts": [[2019, 5, 1]]},
    "created": {"date-time": "2018-11-02T10:00:00Z"},
    "reference": [
      {"key": "r1", "DOI": "10.1000/abc", "article-title": "Prior art", "author": "Knuth", "year": "1998"},
      {"key": "r2", "unstructured": "Some book without DOI", "year": "2001a"},
      {"key": "r3", "DOI": "10.1000/def"}
    ]
  }
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithRateLimit(0), WithTimeout(2*time.Second))
}

func TestResolve_MapsWork(t *testing.T) {
	var gotPath, gotAccept string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleWork))
	})

	rec, err := c.Resolve(context.Background(), "10.1000/xyz123")
	require.NoError(t, err)

	assert.Equal(t, "/works/10.1000/xyz123", gotPath)
	assert.Equal(t, "application/json", gotAccept)

	assert.Equal(t, "10.1000/xyz123", rec.DOI)
	assert.Equal(t, []string{"Random walks on citation graphs", "Alt title"}, rec.Titles)
	assert.Equal(t, []paper.Author{
		{Given: "Ada", Family: "Lovelace"},
		{Family: "The Consortium"},
		{Given: "Alan", Family: "Turing"},
	}, rec.Authors)
	assert.Equal(t, 2019, rec.Year)
	assert.Equal(t, 2018, rec.Created.Year())

	require.Len(t, rec.References, 3)
	assert.Equal(t, paper.Stub{DOI: "10.1000/abc", Title: "Prior art", Author: "Knuth", Year: 1998}, rec.References[0])
	assert.Equal(t, paper.Stub{Title: "Some book without DOI", Year: 2001}, rec.References[1])
	assert.Equal(t, "10.1000/def", rec.References[2].DOI)

	p, err := paper.New(rec)
	require.NoError(t, err)
	assert.Len(t, p.ResolvableReferences(), 2)
}

func TestResolve_NotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Resource not found.", http.StatusNotFound)
	})

	_, err := c.Resolve(context.Background(), "10.1000/missing")
	require.Error(t, err)
	assert.True(t, paper.IsNotFound(err))
}

func TestResolve_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"wrong type", `{"status":"ok","message-type":"work-list","message":{}}`},
		{"no message", `{"status":"ok","message-type":"work"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := c.Resolve(context.Background(), "10.1000/x")
			require.Error(t, err)
			assert.True(t, paper.IsMalformed(err))
		})
	}
}

func TestResolve_ServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Resolve(context.Background(), "10.1000/x")
	require.Error(t, err)
	assert.False(t, paper.IsNotFound(err))
	assert.Equal(t, 1, calls)
}

func TestResolve_Canceled(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleWork))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Resolve(ctx, "10.1000/xyz123")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMailto(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("mailto")
		gotUA = r.UserAgent()
		w.Write([]byte(sampleWork))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithMailto("me@example.org"), WithRateLimit(0))
	_, err := c.Resolve(context.Background(), "10.1000/xyz123")
	require.NoError(t, err)

	assert.Equal(t, "me@example.org", gotQuery)
	assert.True(t, strings.Contains(gotUA, "mailto:me@example.org"), gotUA)
	assert.Contains(t, c.WorkURL("10.1/a"), "?mailto=me%40example.org")
}

func TestParseYear(t *testing.T) {
	assert.Equal(t, 2001, parseYear("2001a"))
	assert.Equal(t, 1999, parseYear("(1999)"))
	assert.Equal(t, 0, parseYear("n.d."))
	assert.Equal(t, 0, parseYear(""))
}

func TestWorkWithoutIssuedYear(t *testing.T) {
	rec, err := decodeWork([]byte(`{"message-type":"work","message":{"DOI":"10.1/a","title":["T"],
		"issued":{"date-parts":[[null]]},"created":{"date-time":"2015-02-03T00:00:00Z"}}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Year)

	p, err := paper.New(rec)
	require.NoError(t, err)
	assert.Equal(t, 2015, p.Year())
}
