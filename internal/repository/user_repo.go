package repository

import (
	"GameZone/internal/model"
	"context"

	"gorm.io/gorm"
)

type UserRepo interface {
	GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*model.UserDetail, error)
	UpdateUserFollowCount(ctx context.Context, id uint64, followerCount int64, followingCount int64) error
}

type UserRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &UserRepoImpl{db: db}
}

func (s *UserRepoImpl) GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*model.UserDetail, error) {
	users := make([]*model.UserDetail, 0)
	if len(ids) == 0 {
		return users, nil
	}
	result := s.db.WithContext(ctx).
		Select("user_id", "nickname", "avatar_url", "bio").
		Where("user_id IN ?", ids).
		Find(&users)

	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

func (s *UserRepoImpl) UpdateUserFollowCount(ctx context.Context, id uint64, followerCount int64, followingCount int64) error {
	result := s.db.WithContext(ctx).Model(&model.UserDetail{}).Where("user_id = ?", id).Updates(map[string]interface{}{
		"followers_count": followerCount,
		"following_count": followingCount,
	})
	if result.Error != nil {
		return result.Error
	}
	return nil
}
