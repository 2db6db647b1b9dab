package mongo

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepo interface {
	SaveMessage(ctx context.Context, msg *Message) error
	GetWindow(ctx context.Context, key string, limit int) ([]*Message, error)
}

type messageRepoImpl struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepoImpl{
		col: db.Collection(messageCollection),
	}
}

// SaveMessage 将消息存入 MongoDB，并回填 ObjectID
func (s *messageRepoImpl) SaveMessage(ctx context.Context, msg *Message) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if _, err := s.col.InsertOne(ctx, msg); err != nil {
		return errors.Wrapf(err, "insert message into %s", msg.ConversationKey)
	}
	return nil
}

// GetWindow 会话中最新的 limit 条消息，最新的在前
func (s *messageRepoImpl) GetWindow(ctx context.Context, key string, limit int) ([]*Message, error) {
	filter := bson.M{"conversation_key": key}

	// 同一时间戳按 _id 倒序，保证窗口稳定
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, errors.Wrapf(err, "find messages of %s", key)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var messages []*Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, errors.Wrapf(err, "decode messages of %s", key)
	}
	return messages, nil
}
