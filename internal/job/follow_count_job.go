package job

import (
	"GameZone/internal/pkg/consts"
	"GameZone/internal/pkg/logger"
	"GameZone/internal/pkg/redis"
	"GameZone/internal/pkg/util"
	"GameZone/internal/repository"
	"GameZone/internal/service"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const followCountCacheTTL = time.Hour

// FollowCountJob 按脏集合回源校准关注数和粉丝数
type FollowCountJob struct {
	userSvc        service.UserService
	userFollowRepo repository.UserFollowRepo
}

func NewFollowCountJob(userSvc service.UserService, userFollowRepo repository.UserFollowRepo) *FollowCountJob {
	return &FollowCountJob{
		userSvc:        userSvc,
		userFollowRepo: userFollowRepo,
	}
}

func (s *FollowCountJob) Run() {
	ctx := logger.WithTraceID(context.Background(), "job-")

	lockValue := uuid.NewString()
	lock, err := redis.TryLock(ctx, consts.FollowSyncLock, lockValue, 5*time.Minute, 1)
	if err != nil {
		log.ErrorContext(ctx, "acquire follow sync lock error", "err", err)
		return
	}
	if !lock {
		return
	}
	defer redis.UnLock(ctx, consts.FollowSyncLock, lockValue)

	// 上一轮失败留下的 processing 集合直接接着处理
	processingKey := consts.UserFollowDirtyKey + ":processing"
	n, err := redis.GetRdbClient().Exists(ctx, processingKey).Result()
	if err != nil {
		log.ErrorContext(ctx, "check processing set error", "err", err)
		return
	}
	if n == 0 {
		if err = redis.Rename(ctx, consts.UserFollowDirtyKey, processingKey); err != nil {
			return
		}
	}

	tempSet, err := redis.GetSet(ctx, processingKey)
	if err != nil {
		log.ErrorContext(ctx, "get dirty set error", "err", err)
		return
	}

	userIDs, err := util.StrSliceToUInt64Slice(tempSet)
	if err != nil {
		log.ErrorContext(ctx, "convert set to int slice error", "err", err)
		return
	}

	failed := 0
	for _, id := range userIDs {
		if err = s.sync(ctx, id); err != nil {
			failed++
			log.ErrorContext(ctx, "sync user follow count error", "user_id", id, "err", err)
		}
	}
	if failed > 0 {
		return
	}

	if err = redis.DeleteKey(ctx, processingKey); err != nil {
		log.ErrorContext(ctx, "delete dirty set error", "err", err)
	}

	log.InfoContext(ctx, "sync user follow count success", "users", len(userIDs))
}

func (s *FollowCountJob) sync(ctx context.Context, userID uint64) error {
	followerCount, err := s.userFollowRepo.GetUserFollowerCount(ctx, userID)
	if err != nil {
		return err
	}
	followingCount, err := s.userFollowRepo.GetUserFollowingCount(ctx, userID)
	if err != nil {
		return err
	}
	if err = s.userSvc.UpdateUserFollowCount(ctx, userID, followerCount, followingCount); err != nil {
		return err
	}

	uid := strconv.FormatUint(userID, 10)
	if err = redis.SetWithExpiration(ctx, consts.UserFollowerCountKey+uid, followerCount, followCountCacheTTL); err != nil {
		log.WarnContext(ctx, "refresh follower count cache error", "user_id", userID, "err", err)
	}
	if err = redis.SetWithExpiration(ctx, consts.UserFollowingCountKey+uid, followingCount, followCountCacheTTL); err != nil {
		log.WarnContext(ctx, "refresh following count cache error", "user_id", userID, "err", err)
	}
	return nil
}
