package catalog

import (
	"GameZone/internal/api/config"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	queries []url.Values
	paths   []string
}

func (r *recorder) last() (string, url.Values) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paths[len(r.paths)-1], r.queries[len(r.queries)-1]
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec.mu.Lock()
		rec.paths = append(rec.paths, req.URL.Path)
		rec.queries = append(rec.queries, req.URL.Query())
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestListGames(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"count":1,"results":[{"id":3498,"slug":"gta-v","name":"Grand Theft Auto V","rating":4.47,"genres":[{"id":4,"name":"Action","slug":"action"}]}]}`)
	c := NewClient(config.CatalogConfig{BaseURL: srv.URL, ApiKey: "secret"})

	page, err := c.ListGames(context.Background(), Query{Page: 2, PageSize: 100, Ordering: "-rating", Search: "gta"})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Grand Theft Auto V", page.Results[0].Name)
	assert.Equal(t, "action", page.Results[0].Genres[0].Slug)

	path, q := rec.last()
	assert.Equal(t, "/games", path)
	assert.Equal(t, "secret", q.Get("key"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "40", q.Get("page_size"))
	assert.Equal(t, "-rating", q.Get("ordering"))
	assert.Equal(t, "gta", q.Get("search"))
}

func TestTrendingDefaultOrdering(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"results":[]}`)
	c := NewClient(config.CatalogConfig{BaseURL: srv.URL})

	page, err := c.Trending(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, page.Results)

	path, q := rec.last()
	assert.Equal(t, "/games/lists/main", path)
	assert.Equal(t, "-relevance", q.Get("ordering"))
	assert.False(t, q.Has("key"))
	assert.False(t, q.Has("page"))
}

func TestTagsMissingResults(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"count":0}`)
	c := NewClient(config.CatalogConfig{BaseURL: srv.URL})

	page, err := c.Tags(context.Background(), Query{})
	require.NoError(t, err)
	assert.NotNil(t, page.Results)
}

func TestErrorStatus(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, `{"error":"bad key"}`)
	c := NewClient(config.CatalogConfig{BaseURL: srv.URL})

	_, err := c.ListGames(context.Background(), Query{})
	assert.ErrorContains(t, err, "401")
}
