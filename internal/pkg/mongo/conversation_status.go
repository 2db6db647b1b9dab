package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConversationStatus 会话状态文档，_id 即会话标识
type ConversationStatus struct {
	Key           string               `bson:"_id"`
	Participants  []string             `bson:"participants"`
	LastRead      map[string]time.Time `bson:"last_read,omitempty"` // UID -> 已读到的时间
	LastMessage   *LastMessage         `bson:"last_message,omitempty"`
	LastMessageAt time.Time            `bson:"last_message_at"`
	Recent        []UnreadMarker       `bson:"recent,omitempty"` // 最近的消息标记，新的在前，长度有上限
}

// LastMessage 会话列表展示用的最新消息预览
type LastMessage struct {
	MessageID primitive.ObjectID `bson:"message_id"`
	SenderID  string             `bson:"sender_id"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"created_at"`
}

// UnreadMarker 不含正文的消息标记
type UnreadMarker struct {
	MessageID   primitive.ObjectID `bson:"message_id"`
	SenderID    string             `bson:"sender_id"`
	RecipientID string             `bson:"recipient_id"`
	CreatedAt   time.Time          `bson:"created_at"`
}
