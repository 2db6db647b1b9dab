package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StatusRepo interface {
	AppendMessage(ctx context.Context, msg *Message, participants []string, maxMarkers int) error
	MarkRead(ctx context.Context, key string, participants []string, userID string, at time.Time) error
	GetStatus(ctx context.Context, key string) (*ConversationStatus, error)
	ListByParticipant(ctx context.Context, userID string, limit int) ([]*ConversationStatus, error)
}

type statusRepoImpl struct {
	col *mongo.Collection
}

func NewStatusRepo(db *mongo.Database) StatusRepo {
	return &statusRepoImpl{
		col: db.Collection(statusCollection),
	}
}

// AppendMessage 更新最新消息预览，并把消息标记按时间倒序插入 recent，只保留 maxMarkers 条
func (s *statusRepoImpl) AppendMessage(ctx context.Context, msg *Message, participants []string, maxMarkers int) error {
	update := appendMessageUpdate(msg, participants, maxMarkers)
	_, err := s.col.UpdateByID(ctx, msg.ConversationKey, update, options.Update().SetUpsert(true))
	if err != nil {
		return errors.Wrapf(err, "append marker to %s", msg.ConversationKey)
	}
	return nil
}

// MarkRead 已读进度只前进不后退
func (s *statusRepoImpl) MarkRead(ctx context.Context, key string, participants []string, userID string, at time.Time) error {
	update := bson.M{
		"$setOnInsert": bson.M{"participants": participants},
		"$max":         bson.M{"last_read." + userID: at},
	}

	_, err := s.col.UpdateByID(ctx, key, update, options.Update().SetUpsert(true))
	if err != nil {
		return errors.Wrapf(err, "mark %s read by %s", key, userID)
	}
	return nil
}

// GetStatus 会话还没有任何状态时返回 nil
func (s *statusRepoImpl) GetStatus(ctx context.Context, key string) (*ConversationStatus, error) {
	var status ConversationStatus
	err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&status)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "find status of %s", key)
	}
	return &status, nil
}

// ListByParticipant 用户参与的会话，最近有消息的在前
func (s *statusRepoImpl) ListByParticipant(ctx context.Context, userID string, limit int) ([]*ConversationStatus, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "last_message_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.col.Find(ctx, bson.M{"participants": userID}, findOptions)
	if err != nil {
		return nil, errors.Wrapf(err, "list conversations of %s", userID)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var res []*ConversationStatus
	if err = cursor.All(ctx, &res); err != nil {
		return nil, errors.Wrapf(err, "decode conversations of %s", userID)
	}
	return res, nil
}

// appendMessageUpdate recent 按 created_at 倒序排列，迟到的旧标记也不会挤掉更新的
func appendMessageUpdate(msg *Message, participants []string, maxMarkers int) bson.M {
	marker := UnreadMarker{
		MessageID:   msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		CreatedAt:   msg.CreatedAt,
	}
	return bson.M{
		"$setOnInsert": bson.M{"participants": participants},
		"$set": bson.M{
			"last_message": LastMessage{
				MessageID: msg.ID,
				SenderID:  msg.SenderID,
				Content:   msg.Content,
				CreatedAt: msg.CreatedAt,
			},
			"last_message_at": msg.CreatedAt,
		},
		"$push": bson.M{
			"recent": bson.M{
				"$each":  []UnreadMarker{marker},
				"$sort":  bson.M{"created_at": -1},
				"$slice": maxMarkers,
			},
		},
	}
}
