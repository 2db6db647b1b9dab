package messenger

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyMessage     = errors.New("消息内容不能为空")
	ErrNoMoreHistory    = errors.New("没有更多历史消息")
	ErrNoConversation   = errors.New("当前没有打开的会话")
	ErrSelfConversation = errors.New("不能给自己发私信")
)

// FollowKind 关注关系方向
type FollowKind string

const (
	FollowKindFollowing FollowKind = "following"
	FollowKindFollowers FollowKind = "followers"
)

// User 用户快照，由 Directory 提供，只读
type User struct {
	ID          string
	DisplayName string
	AvatarURL   string
}

// Message 私信，创建后不可变
type Message struct {
	ID              string
	ConversationKey string
	SenderID        string
	RecipientID     string
	Body            string
	CreatedAt       time.Time
}

// Marker 未读标记，不含消息正文
type Marker struct {
	MessageID   string
	SenderID    string
	RecipientID string
	CreatedAt   time.Time
}

// ConversationStatus 会话状态文档
type ConversationStatus struct {
	Key      string
	LastRead map[string]time.Time
	Markers  []Marker
}

// Subscription 实时订阅句柄，Cancel 之后不再回调
type Subscription interface {
	Cancel()
}

// MessageStore 消息存储，回调在同一订阅内按序触发
type MessageStore interface {
	WatchMessages(ctx context.Context, key string, limit int, fn func([]*Message)) (Subscription, error)
	CreateMessage(ctx context.Context, msg *Message) error
}

// StatusStore 会话状态存储
type StatusStore interface {
	WatchStatus(ctx context.Context, key string, fn func(*ConversationStatus)) (Subscription, error)
	MarkRead(ctx context.Context, key, userID string) error
}

// Directory 用户目录
type Directory interface {
	ListFollows(ctx context.Context, userID string, kind FollowKind) ([]*User, error)
}
