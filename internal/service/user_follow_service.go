package service

import (
	"GameZone/internal/model"
	"GameZone/internal/pkg/consts"
	"GameZone/internal/pkg/redis"
	"GameZone/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

const MaxFollowingCount = 1000

type UserFollowService interface {
	GetUserFollowers(ctx context.Context, userId uint64, limit, offset int) ([]*model.UserFollow, error)
	GetUserFollowing(ctx context.Context, userId uint64, limit, offset int) ([]*model.UserFollow, error)
	GetUserFollowerCount(ctx context.Context, userId uint64) (int64, error)
	GetUserFollowingCount(ctx context.Context, userId uint64) (int64, error)
	GetSomeoneIsFollowing(ctx context.Context, userId, followingId uint64) (bool, error)
	CreateUserFollow(ctx context.Context, userFollow *model.UserFollow) error
	DeleteUserFollow(ctx context.Context, userFollow *model.UserFollow) error
}

type UserFollowServiceImpl struct {
	userFollowRepo repository.UserFollowRepo
}

func NewUserFollowService(userFollowRepo repository.UserFollowRepo) UserFollowService {
	return &UserFollowServiceImpl{userFollowRepo: userFollowRepo}
}

type fetchListFunc func(ctx context.Context, userId uint64, limit, offset int) ([]*model.UserFollow, error)
type fetchCountFunc func(ctx context.Context, userId uint64) (int64, error)

func (s *UserFollowServiceImpl) GetUserFollowers(ctx context.Context, userId uint64, limit, offset int) ([]*model.UserFollow, error) {
	return s.getFollowListCommon(ctx, userId, limit, offset, consts.UserFollowerKey, true, s.userFollowRepo.GetUserFollowers)
}

// GetUserFollowing 关注列表，私信的候选会话对象也来自这里
func (s *UserFollowServiceImpl) GetUserFollowing(ctx context.Context, userId uint64, limit, offset int) ([]*model.UserFollow, error) {
	return s.getFollowListCommon(ctx, userId, limit, offset, consts.UserFollowingKey, false, s.userFollowRepo.GetUserFollowing)
}

func (s *UserFollowServiceImpl) GetUserFollowerCount(ctx context.Context, userId uint64) (int64, error) {
	return s.getCountCommon(ctx, userId, consts.UserFollowerCountKey, s.userFollowRepo.GetUserFollowerCount)
}

func (s *UserFollowServiceImpl) GetUserFollowingCount(ctx context.Context, userId uint64) (int64, error) {
	return s.getCountCommon(ctx, userId, consts.UserFollowingCountKey, s.userFollowRepo.GetUserFollowingCount)
}

func (s *UserFollowServiceImpl) GetSomeoneIsFollowing(ctx context.Context, userId, followingId uint64) (bool, error) {
	key := consts.UserFollowingKey + strconv.FormatUint(userId, 10)
	_, err := redis.GetRdbClient().ZScore(ctx, key, strconv.FormatUint(followingId, 10)).Result()
	if err == nil {
		return true, nil
	}
	userFollow, err := s.userFollowRepo.GetUserFollow(ctx, userId, followingId)
	if err != nil {
		return false, err
	}
	return userFollow != nil, nil
}

// CreateUserFollow 只写 MySQL，缓存由 canal 消费者维护
func (s *UserFollowServiceImpl) CreateUserFollow(ctx context.Context, userFollow *model.UserFollow) error {
	if userFollow.FollowerID == userFollow.FollowingID {
		return ErrUserFollowSelf
	}

	count, err := s.GetUserFollowingCount(ctx, userFollow.FollowerID)
	if err != nil {
		return err
	}
	if count >= MaxFollowingCount {
		return ErrUserFollowLimit
	}

	isFollowing, err := s.GetSomeoneIsFollowing(ctx, userFollow.FollowerID, userFollow.FollowingID)
	if err != nil {
		return err
	}
	if isFollowing {
		return ErrUserFollowExist
	}

	userFollow.CreatedAt = time.Now()
	return s.userFollowRepo.CreateUserFollow(ctx, userFollow)
}

func (s *UserFollowServiceImpl) DeleteUserFollow(ctx context.Context, userFollow *model.UserFollow) error {
	return s.userFollowRepo.DeleteUserFollow(ctx, userFollow)
}

// getFollowListCommon 前 FollowCacheSize 条走 ZSET 缓存，未命中时回源并异步重建缓存
func (s *UserFollowServiceImpl) getFollowListCommon(
	ctx context.Context,
	userId uint64,
	limit, offset int,
	keyPrefix string,
	isFollowerList bool,
	fetchDB fetchListFunc,
) ([]*model.UserFollow, error) {
	if offset+limit > consts.FollowCacheSize {
		return fetchDB(ctx, userId, limit, offset)
	}

	key := keyPrefix + strconv.FormatUint(userId, 10)
	rdb := redis.GetRdbClient()

	res, err := rdb.ZRevRangeWithScores(ctx, key, int64(offset), int64(offset+limit-1)).Result()
	if err == nil && len(res) != 0 {
		return s.zSetResToUserFollow(userId, res, isFollowerList)
	}

	dbData, err := fetchDB(ctx, userId, consts.FollowCacheSize, 0)
	if err != nil {
		return nil, err
	}
	if len(dbData) == 0 {
		return []*model.UserFollow{}, nil
	}

	go s.rebuildCache(key, dbData, isFollowerList)

	start := offset
	end := offset + limit
	if start >= len(dbData) {
		return []*model.UserFollow{}, nil
	}
	if end > len(dbData) {
		end = len(dbData)
	}
	return dbData[start:end], nil
}

func (s *UserFollowServiceImpl) rebuildCache(key string, data []*model.UserFollow, isFollowerList bool) {
	// 使用 Background context 防止请求结束后被 cancel
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zMembers := make([]redisv9.Z, 0, len(data))
	for _, item := range data {
		memberID := item.FollowerID
		if !isFollowerList {
			memberID = item.FollowingID
		}
		zMembers = append(zMembers, redisv9.Z{
			Score:  float64(item.CreatedAt.Unix()),
			Member: memberID,
		})
	}

	pipe := redis.GetRdbClient().TxPipeline()
	pipe.Del(ctx, key)
	pipe.ZAdd(ctx, key, zMembers...)
	pipe.Expire(ctx, key, time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn("Rebuild follow cache failed", "key", key, "err", err)
	}
}

func (s *UserFollowServiceImpl) getCountCommon(
	ctx context.Context,
	userId uint64,
	keyPrefix string,
	fetchDB fetchCountFunc,
) (int64, error) {
	key := keyPrefix + strconv.FormatUint(userId, 10)

	valStr, err := redis.GetValue(ctx, key)
	if err == nil && valStr != "" {
		return strconv.ParseInt(valStr, 10, 64)
	}

	count, err := fetchDB(ctx, userId)
	if err != nil {
		return 0, err
	}

	_ = redis.SetWithExpiration(ctx, key, count, time.Hour)
	return count, nil
}

func (s *UserFollowServiceImpl) zSetResToUserFollow(ownerId uint64, res []redisv9.Z, isFollowerList bool) ([]*model.UserFollow, error) {
	userFollows := make([]*model.UserFollow, 0, len(res))
	for _, v := range res {
		member, _ := v.Member.(string)
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			return nil, err
		}

		item := &model.UserFollow{CreatedAt: time.Unix(int64(v.Score), 0)}
		if isFollowerList {
			item.FollowingID = ownerId
			item.FollowerID = id
		} else {
			item.FollowerID = ownerId
			item.FollowingID = id
		}
		userFollows = append(userFollows, item)
	}
	return userFollows, nil
}
