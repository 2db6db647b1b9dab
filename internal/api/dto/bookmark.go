package dto

// AddBookmarkReq 收藏请求体，携带游戏卡片上已有的展示字段
type AddBookmarkReq struct {
	GameID          int64    `json:"game_id" binding:"required" validate:"min=1"`
	Name            string   `json:"name" binding:"required" validate:"max=255"`
	Slug            string   `json:"slug" validate:"max=255"`
	BackgroundImage string   `json:"background_image" validate:"omitempty,url,max=512"`
	Released        string   `json:"released" validate:"max=16"`
	Genres          []string `json:"genres" validate:"max=10,dive,max=32"`
}

// BookmarkDTO 收藏列表项
type BookmarkDTO struct {
	GameID          int64    `json:"game_id"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	BackgroundImage string   `json:"background_image"`
	Released        string   `json:"released"`
	Genres          []string `json:"genres"`
	BookmarkedAt    int64    `json:"bookmarked_at"` // 毫秒时间戳
}

// BookmarkPageDTO 收藏分页结果
type BookmarkPageDTO struct {
	Total int64          `json:"total"`
	Items []*BookmarkDTO `json:"items"`
}
