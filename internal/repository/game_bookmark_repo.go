package repository

import (
	"GameZone/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GameBookmarkRepo interface {
	ListBookmarks(ctx context.Context, userID uint64, limit, offset int) ([]*model.GameBookmark, error)
	CountBookmarks(ctx context.Context, userID uint64) (int64, error)
	GetBookmark(ctx context.Context, userID uint64, gameID int64) (*model.GameBookmark, error)
	CreateBookmark(ctx context.Context, bookmark *model.GameBookmark) error
	DeleteBookmark(ctx context.Context, userID uint64, gameID int64) error
}

type GameBookmarkRepoImpl struct {
	db *gorm.DB
}

func NewGameBookmarkRepo(db *gorm.DB) GameBookmarkRepo {
	return &GameBookmarkRepoImpl{db: db}
}

// ListBookmarks 最近收藏的在前
func (s *GameBookmarkRepoImpl) ListBookmarks(ctx context.Context, userID uint64, limit, offset int) ([]*model.GameBookmark, error) {
	var bookmarks []*model.GameBookmark
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&bookmarks)

	if result.Error != nil {
		return nil, result.Error
	}
	return bookmarks, nil
}

func (s *GameBookmarkRepoImpl) CountBookmarks(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).
		Model(&model.GameBookmark{}).
		Where("user_id = ?", userID).
		Count(&count)

	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// GetBookmark 未收藏时返回 nil
func (s *GameBookmarkRepoImpl) GetBookmark(ctx context.Context, userID uint64, gameID int64) (*model.GameBookmark, error) {
	var bookmark model.GameBookmark
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		First(&bookmark)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &bookmark, nil
}

// CreateBookmark 并发重复收藏直接忽略
func (s *GameBookmarkRepoImpl) CreateBookmark(ctx context.Context, bookmark *model.GameBookmark) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			DoNothing: true,
		}).
		Create(bookmark).Error
}

func (s *GameBookmarkRepoImpl) DeleteBookmark(ctx context.Context, userID uint64, gameID int64) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Delete(&model.GameBookmark{}).Error
}
