package dto

// UserDTO 用户
type UserDTO struct {
	UserID         *uint64 `json:"user_id,omitempty"`
	Nickname       *string `json:"nickname,omitempty"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	FollowersCount *int64  `json:"followers_count,omitempty"`
	FollowingCount *int64  `json:"following_count,omitempty"`
}

// FollowUserDTO 关注/粉丝列表项
type FollowUserDTO struct {
	UserID     uint64 `json:"user_id"`
	Nickname   string `json:"nickname"`
	AvatarURL  string `json:"avatar_url"`
	FollowedAt int64  `json:"followed_at"`
}

// SearchUserDTO 搜索用户
type SearchUserDTO struct {
	Keyword  string `form:"keyword" binding:"required" validate:"min=1,max=30"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
