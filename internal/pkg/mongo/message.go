package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message MongoDB 消息明细模型
type Message struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`    // MongoDB 自动生成的 ObjectID
	ConversationKey string             `bson:"conversation_key"` // 单聊会话标识，两端 UID 升序以 _ 连接
	SenderID        string             `bson:"sender_id"`
	RecipientID     string             `bson:"recipient_id"`
	Content         string             `bson:"content"`
	CreatedAt       time.Time          `bson:"created_at"` // 写入时由服务端设置
}
