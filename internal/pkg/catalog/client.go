package catalog

import (
	"GameZone/internal/api/config"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const (
	gamesPath    = "/games"
	trendingPath = "/games/lists/main"
	tagsPath     = "/tags"
	maxPageSize  = 40
)

// Client 只读的游戏目录客户端
type Client interface {
	ListGames(ctx context.Context, q Query) (*Page[Game], error)
	Trending(ctx context.Context, q Query) (*Page[Game], error)
	Tags(ctx context.Context, q Query) (*Page[Tag], error)
}

type clientImpl struct {
	http   *resty.Client
	apiKey string
}

func NewClient(cfg config.CatalogConfig) Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	return &clientImpl{http: c, apiKey: cfg.ApiKey}
}

func (c *clientImpl) ListGames(ctx context.Context, q Query) (*Page[Game], error) {
	return get[Game](ctx, c, gamesPath, q)
}

// Trending 首页主推列表，默认按热度排序
func (c *clientImpl) Trending(ctx context.Context, q Query) (*Page[Game], error) {
	if q.Ordering == "" {
		q.Ordering = "-relevance"
	}
	return get[Game](ctx, c, trendingPath, q)
}

func (c *clientImpl) Tags(ctx context.Context, q Query) (*Page[Tag], error) {
	return get[Tag](ctx, c, tagsPath, q)
}

func get[T any](ctx context.Context, c *clientImpl, path string, q Query) (*Page[T], error) {
	page := &Page[T]{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(c.params(q)).
		SetResult(page).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("catalog %s: unexpected status %d", path, resp.StatusCode())
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	return page, nil
}

func (c *clientImpl) params(q Query) map[string]string {
	p := make(map[string]string)
	if c.apiKey != "" {
		p["key"] = c.apiKey
	}
	if q.Page > 0 {
		p["page"] = strconv.Itoa(q.Page)
	}
	if q.PageSize > 0 {
		p["page_size"] = strconv.Itoa(min(q.PageSize, maxPageSize))
	}
	if q.Ordering != "" {
		p["ordering"] = q.Ordering
	}
	if q.Search != "" {
		p["search"] = q.Search
	}
	if q.Genres != "" {
		p["genres"] = q.Genres
	}
	if q.Tags != "" {
		p["tags"] = q.Tags
	}
	return p
}
