package dto

import "time"

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	TargetUserID uint64 `json:"target_user_id" binding:"required"`
	Content      string `json:"content" binding:"required" validate:"max=2000"`
}

// HistoryReq 拉取最近消息
type HistoryReq struct {
	TargetUserID uint64 `form:"target_user_id" binding:"required"`
	Limit        int    `form:"limit"`
}

// MarkAsReadReq 标记为已读请求
type MarkAsReadReq struct {
	TargetUserID uint64 `json:"target_user_id" binding:"required"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID              string    `json:"id"`
	ConversationKey string    `json:"conversation_key"`
	SenderID        string    `json:"sender_id"`
	RecipientID     string    `json:"recipient_id"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

// ConversationDTO 会话列表项响应
type ConversationDTO struct {
	ConversationKey string    `json:"conversation_key"`
	PeerID          string    `json:"peer_id"`
	PeerNickname    string    `json:"peer_nickname,omitempty"`
	PeerAvatarURL   string    `json:"peer_avatar_url,omitempty"`
	LastMsgContent  string    `json:"last_msg_content"`
	LastSenderID    string    `json:"last_sender_id"`
	LastMessageAt   time.Time `json:"last_message_at"`
	UnreadCount     int       `json:"unread_count"`
}
