package dto

// WebSocket 帧类型
const (
	FrameSelect           = "select"
	FrameLoadMore         = "load_more"
	FrameSend             = "send"
	FrameRefreshFollowing = "refresh_following"

	FrameSelection = "selection"
	FrameWindow    = "window"
	FrameUnread    = "unread"
	FrameFollowing = "following"
	FrameError     = "error"
)

// ClientFrame 客户端发来的指令
type ClientFrame struct {
	Type     string `json:"type"`
	TargetID string `json:"target_id,omitempty"`
	Body     string `json:"body,omitempty"`
}

// ServerFrame 服务端推送
type ServerFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// SelectionDTO 当前会话对象，counterpart 为空表示关注列表中没有该用户
type SelectionDTO struct {
	TargetID        string       `json:"target_id"`
	ConversationKey string       `json:"conversation_key"`
	Counterpart     *ChatUserDTO `json:"counterpart"`
}

// ChatUserDTO 会话中展示的用户
type ChatUserDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// WindowDTO 消息窗口快照，messages 新消息在前
type WindowDTO struct {
	ConversationKey string        `json:"conversation_key"`
	Limit           int           `json:"limit"`
	Messages        []*MessageDTO `json:"messages"`
	CanLoadMore     bool          `json:"can_load_more"`
	Anchor          string        `json:"anchor,omitempty"`
	ScrollToLatest  bool          `json:"scroll_to_latest"`
}

// UnreadDTO 当前会话的未读消息
type UnreadDTO struct {
	ConversationKey string             `json:"conversation_key"`
	Count           int                `json:"count"`
	Messages        []*UnreadMarkerDTO `json:"messages"`
}

type UnreadMarkerDTO struct {
	MessageID string `json:"message_id"`
	SenderID  string `json:"sender_id"`
	CreatedAt int64  `json:"created_at"`
}

// ErrorFrameDTO 指令执行失败，发送失败时带回草稿
type ErrorFrameDTO struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Draft   string `json:"draft,omitempty"`
}
