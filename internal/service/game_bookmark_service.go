package service

import (
	"GameZone/internal/api/dto"
	"GameZone/internal/model"
	"GameZone/internal/repository"
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const MaxBookmarkCount = 500

type GameBookmarkService interface {
	ListBookmarks(ctx context.Context, userId uint64, limit, offset int) (*dto.BookmarkPageDTO, error)
	AddBookmark(ctx context.Context, userId uint64, req *dto.AddBookmarkReq) error
	RemoveBookmark(ctx context.Context, userId uint64, gameId int64) error
}

type GameBookmarkServiceImpl struct {
	bookmarkRepo repository.GameBookmarkRepo
}

func NewGameBookmarkService(bookmarkRepo repository.GameBookmarkRepo) GameBookmarkService {
	return &GameBookmarkServiceImpl{bookmarkRepo: bookmarkRepo}
}

// ListBookmarks 总数和当前页并发查询
func (s *GameBookmarkServiceImpl) ListBookmarks(ctx context.Context, userId uint64, limit, offset int) (*dto.BookmarkPageDTO, error) {
	var (
		total     int64
		bookmarks []*model.GameBookmark
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.bookmarkRepo.CountBookmarks(gctx, userId)
		return err
	})
	g.Go(func() error {
		var err error
		bookmarks, err = s.bookmarkRepo.ListBookmarks(gctx, userId, limit, offset)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]*dto.BookmarkDTO, 0, len(bookmarks))
	for _, b := range bookmarks {
		items = append(items, toBookmarkDTO(b))
	}
	return &dto.BookmarkPageDTO{Total: total, Items: items}, nil
}

func (s *GameBookmarkServiceImpl) AddBookmark(ctx context.Context, userId uint64, req *dto.AddBookmarkReq) error {
	if req.GameID <= 0 || strings.TrimSpace(req.Name) == "" {
		return ErrParamInvalid
	}

	existing, err := s.bookmarkRepo.GetBookmark(ctx, userId, req.GameID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrBookmarkExist
	}

	count, err := s.bookmarkRepo.CountBookmarks(ctx, userId)
	if err != nil {
		return err
	}
	if count >= MaxBookmarkCount {
		return ErrBookmarkLimit
	}

	return s.bookmarkRepo.CreateBookmark(ctx, &model.GameBookmark{
		UserID:          userId,
		GameID:          req.GameID,
		Name:            req.Name,
		Slug:            req.Slug,
		BackgroundImage: req.BackgroundImage,
		Released:        req.Released,
		Genres:          strings.Join(req.Genres, ","),
		CreatedAt:       time.Now(),
	})
}

// RemoveBookmark 未收藏时返回 ErrBookmarkNotFound，前端据此回滚按钮状态
func (s *GameBookmarkServiceImpl) RemoveBookmark(ctx context.Context, userId uint64, gameId int64) error {
	existing, err := s.bookmarkRepo.GetBookmark(ctx, userId, gameId)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrBookmarkNotFound
	}
	return s.bookmarkRepo.DeleteBookmark(ctx, userId, gameId)
}

func toBookmarkDTO(b *model.GameBookmark) *dto.BookmarkDTO {
	genres := []string{}
	if b.Genres != "" {
		genres = strings.Split(b.Genres, ",")
	}
	return &dto.BookmarkDTO{
		GameID:          b.GameID,
		Name:            b.Name,
		Slug:            b.Slug,
		BackgroundImage: b.BackgroundImage,
		Released:        b.Released,
		Genres:          genres,
		BookmarkedAt:    b.CreatedAt.UnixMilli(),
	}
}
