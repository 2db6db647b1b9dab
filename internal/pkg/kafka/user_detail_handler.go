package kafka

import (
	"GameZone/internal/pkg/consts"
	"GameZone/internal/pkg/es"
	"GameZone/internal/pkg/redis"
	"context"
	"errors"
	log "log/slog"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

var errLockBusy = errors.New("user detail lock busy")

// UserCache 用户简要信息缓存
type UserCache interface {
	InvalidateUserCache(ctx context.Context, ids ...uint64) error
}

// UserDetailHandler 同步 user_detail 变更到 ES 用户索引，并让简要信息缓存失效
type UserDetailHandler struct {
	userESRepo es.UserRepo
	userCache  UserCache
}

func NewUserDetailHandler(userESRepo es.UserRepo, userCache UserCache) *UserDetailHandler {
	return &UserDetailHandler{
		userESRepo: userESRepo,
		userCache:  userCache,
	}
}

func (s *UserDetailHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("user detail consumer setup")
	return nil
}

func (s *UserDetailHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("user detail consumer cleanup")
	return nil
}

func (s *UserDetailHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-user-detail consume claim", "partition", claim.Partition())
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-user-detail process batch error", "err", err)
		return err
	}
	log.Info("topic-user-detail consume claim end", "partition", claim.Partition())
	return nil
}

func (s *UserDetailHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg := ToCanalMessage(msg, "user_detail")
	if canalMsg == nil {
		return nil
	}

	for _, row := range canalMsg.Data {
		user := toESModel(row)
		if user.ID == 0 {
			continue
		}
		if err := s.sync(ctx, canalMsg.Type, user, canalMsg.TS); err != nil {
			return err
		}
	}
	return nil
}

// sync 同一用户的索引写入串行化，ES 侧再用外部版本号丢弃旧数据
func (s *UserDetailHandler) sync(ctx context.Context, typ string, user *es.UserES, version int64) error {
	lockKey := consts.UserDetailLock + strconv.FormatUint(user.ID, 10)
	uuidStr := uuid.NewString()
	lock, err := redis.TryLock(ctx, lockKey, uuidStr, 30*time.Second, 3)
	if err != nil {
		return err
	}
	if !lock {
		return errLockBusy
	}
	defer redis.UnLock(ctx, lockKey, uuidStr)

	switch typ {
	case INSERT, UPDATE:
		err = s.userESRepo.IndexUser(ctx, user, version)
	case DELETE:
		err = s.userESRepo.DeleteUser(ctx, user.ID)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	if err = s.userCache.InvalidateUserCache(ctx, user.ID); err != nil {
		log.WarnContext(ctx, "Invalidate user cache failed", "user_id", user.ID, "err", err)
	}
	return nil
}

func toESModel(row map[string]interface{}) *es.UserES {
	bio := StrToString(row["bio"])
	return &es.UserES{
		ID:             StrToUint64(row["user_id"]),
		Nickname:       StrToString(row["nickname"]),
		Bio:            &bio,
		AvatarURL:      StrToString(row["avatar_url"]),
		FollowersCount: StrToInt64(row["followers_count"]),
		FollowingCount: StrToInt64(row["following_count"]),
	}
}
