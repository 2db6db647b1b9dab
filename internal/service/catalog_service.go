package service

import (
	"GameZone/internal/api/config"
	"GameZone/internal/api/dto"
	"GameZone/internal/pkg/catalog"
	"GameZone/internal/pkg/consts"
	"GameZone/internal/pkg/redis"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
)

// CatalogService 游戏目录代理，结果按查询参数缓存在 Redis
type CatalogService interface {
	ListGames(ctx context.Context, req *dto.CatalogQueryDTO) (*catalog.Page[catalog.Game], error)
	Trending(ctx context.Context, req *dto.CatalogQueryDTO) (*catalog.Page[catalog.Game], error)
	Tags(ctx context.Context, req *dto.CatalogQueryDTO) (*catalog.Page[catalog.Tag], error)
}

type CatalogServiceImpl struct {
	client catalog.Client
	ttl    time.Duration
}

func NewCatalogService(cfg config.CatalogConfig, client catalog.Client) CatalogService {
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogServiceImpl{client: client, ttl: ttl}
}

func (s *CatalogServiceImpl) ListGames(ctx context.Context, req *dto.CatalogQueryDTO) (*catalog.Page[catalog.Game], error) {
	return cached(ctx, s.ttl, "games", toQuery(req), s.client.ListGames)
}

func (s *CatalogServiceImpl) Trending(ctx context.Context, req *dto.CatalogQueryDTO) (*catalog.Page[catalog.Game], error) {
	return cached(ctx, s.ttl, "trending", toQuery(req), s.client.Trending)
}

func (s *CatalogServiceImpl) Tags(ctx context.Context, req *dto.CatalogQueryDTO) (*catalog.Page[catalog.Tag], error) {
	return cached(ctx, s.ttl, "tags", toQuery(req), s.client.Tags)
}

// cached 缓存读写失败只记日志，目录接口失败统一返回 ErrCatalogUnavailable
func cached[T any](ctx context.Context, ttl time.Duration, kind string, q catalog.Query, load func(context.Context, catalog.Query) (*T, error)) (*T, error) {
	key := catalogCacheKey(kind, q)

	value, err := redis.GetValue(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "Read catalog cache failed", "key", key, "err", err)
	}
	if value != "" {
		var res T
		if err = json.Unmarshal([]byte(value), &res); err == nil {
			return &res, nil
		}
	}

	res, err := load(ctx, q)
	if err != nil {
		log.ErrorContext(ctx, "Catalog request failed", "kind", kind, "err", err)
		return nil, ErrCatalogUnavailable
	}

	if data, err := json.Marshal(res); err == nil {
		if err = redis.SetWithExpiration(ctx, key, string(data), ttl); err != nil {
			log.WarnContext(ctx, "Write catalog cache failed", "key", key, "err", err)
		}
	}
	return res, nil
}

func catalogCacheKey(kind string, q catalog.Query) string {
	raw := fmt.Sprintf("%d|%d|%s|%s|%s|%s", q.Page, q.PageSize, q.Ordering, q.Search, q.Genres, q.Tags)
	sum := sha1.Sum([]byte(raw))
	return consts.CatalogCacheKey + kind + ":" + hex.EncodeToString(sum[:])
}

func toQuery(req *dto.CatalogQueryDTO) catalog.Query {
	if req == nil {
		return catalog.Query{}
	}
	return catalog.Query{
		Page:     req.Page,
		PageSize: req.PageSize,
		Ordering: req.Ordering,
		Search:   req.Search,
		Genres:   req.Genres,
		Tags:     req.Tags,
	}
}
