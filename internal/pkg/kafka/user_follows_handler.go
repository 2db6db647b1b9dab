package kafka

import (
	"GameZone/internal/pkg/consts"
	"GameZone/internal/pkg/live"
	"GameZone/internal/pkg/redis"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	redisv9 "github.com/redis/go-redis/v9"
)

// UserFollowsHandler 同步 user_follows 变更到关注缓存，并通知在线会话刷新关注列表
type UserFollowsHandler struct {
	notifier live.Notifier
}

func NewUserFollowsHandler(notifier live.Notifier) *UserFollowsHandler {
	return &UserFollowsHandler{notifier: notifier}
}

func (s *UserFollowsHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("user follows consumer setup")
	return nil
}

func (s *UserFollowsHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("user follows consumer cleanup")
	return nil
}

func (s *UserFollowsHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-user-follows consume claim", "partition", claim.Partition())
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-user-follows process batch error", "err", err)
		return err
	}
	log.Info("topic-user-follows consume claim end", "partition", claim.Partition())
	return nil
}

type followRow struct {
	followerID  string
	followingID string
	createdAt   time.Time
}

func (s *UserFollowsHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg := ToCanalMessage(msg, "user_follows")
	if canalMsg == nil || (canalMsg.Type != INSERT && canalMsg.Type != DELETE) {
		return nil
	}

	rows := make([]followRow, 0, len(canalMsg.Data))
	for _, row := range canalMsg.Data {
		followerID := StrToUint64(row["follower_id"])
		followingID := StrToUint64(row["following_id"])
		if followerID == 0 || followingID == 0 {
			continue
		}
		createdAt, err := time.ParseInLocation(time.DateTime, StrToString(row["created_at"]), time.Local)
		if err != nil {
			createdAt = time.Now()
		}
		rows = append(rows, followRow{
			followerID:  strconv.FormatUint(followerID, 10),
			followingID: strconv.FormatUint(followingID, 10),
			createdAt:   createdAt,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	if err := s.updateCache(ctx, canalMsg.Type, rows); err != nil {
		log.ErrorContext(ctx, "Redis Pipeline Exec failed", "err", err, "msg_key", string(msg.Key))
		return err
	}

	notified := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := notified[r.followerID]; ok {
			continue
		}
		notified[r.followerID] = struct{}{}
		if err := s.notifier.Notify(ctx, consts.IMFollowingKey+r.followerID); err != nil {
			log.WarnContext(ctx, "Notify following change failed", "user_id", r.followerID, "err", err)
		}
	}
	return nil
}

// updateCache 只增量维护已经存在的缓存，未缓存的用户在下次读取时回源重建
func (s *UserFollowsHandler) updateCache(ctx context.Context, typ string, rows []followRow) error {
	rdb := redis.GetRdbClient()

	keys := make([]string, 0, len(rows)*4)
	for _, r := range rows {
		keys = append(keys,
			consts.UserFollowerKey+r.followingID,
			consts.UserFollowingKey+r.followerID,
			consts.UserFollowerCountKey+r.followingID,
			consts.UserFollowingCountKey+r.followerID,
		)
	}
	existCmds := make([]*redisv9.IntCmd, len(keys))
	pipe := rdb.Pipeline()
	for i, k := range keys {
		existCmds[i] = pipe.Exists(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	exists := make(map[string]bool, len(keys))
	for i, k := range keys {
		exists[k] = existCmds[i].Val() > 0
	}

	pipe = rdb.Pipeline()
	affectedUIDs := make([]interface{}, 0, len(rows)*2)
	trim := int64(-consts.FollowCacheSize - 1)
	for _, r := range rows {
		affectedUIDs = append(affectedUIDs, r.followerID, r.followingID)

		fdrKey := consts.UserFollowerKey + r.followingID
		fngKey := consts.UserFollowingKey + r.followerID
		fdrCountKey := consts.UserFollowerCountKey + r.followingID
		fngCountKey := consts.UserFollowingCountKey + r.followerID

		switch typ {
		case INSERT:
			score := float64(r.createdAt.Unix())
			if exists[fdrKey] {
				pipe.ZAdd(ctx, fdrKey, redisv9.Z{Score: score, Member: r.followerID})
				pipe.ZRemRangeByRank(ctx, fdrKey, 0, trim)
			}
			if exists[fngKey] {
				pipe.ZAdd(ctx, fngKey, redisv9.Z{Score: score, Member: r.followingID})
				pipe.ZRemRangeByRank(ctx, fngKey, 0, trim)
			}
			if exists[fdrCountKey] {
				pipe.Incr(ctx, fdrCountKey)
			}
			if exists[fngCountKey] {
				pipe.Incr(ctx, fngCountKey)
			}
		case DELETE:
			pipe.ZRem(ctx, fdrKey, r.followerID)
			pipe.ZRem(ctx, fngKey, r.followingID)
			if exists[fdrCountKey] {
				pipe.Decr(ctx, fdrCountKey)
			}
			if exists[fngCountKey] {
				pipe.Decr(ctx, fngCountKey)
			}
		}
	}
	pipe.SAdd(ctx, consts.UserFollowDirtyKey, affectedUIDs...)

	_, err := pipe.Exec(ctx)
	return err
}
