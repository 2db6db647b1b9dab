package model

import "time"

// GameBookmark 收藏时保存一份游戏卡片快照，列表页不再回源目录服务
type GameBookmark struct {
	UserID          uint64    `gorm:"primaryKey" json:"userId"`
	GameID          int64     `gorm:"primaryKey" json:"gameId"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug            string    `gorm:"type:varchar(255)" json:"slug"`
	BackgroundImage string    `gorm:"type:varchar(512)" json:"backgroundImage"`
	Released        string    `gorm:"type:varchar(16)" json:"released"`
	Genres          string    `gorm:"type:varchar(255)" json:"genres"` // 逗号分隔的类型名
	CreatedAt       time.Time `gorm:"index:idx_user_created" json:"createdAt"`
}

func (GameBookmark) TableName() string {
	return "game_bookmarks"
}
