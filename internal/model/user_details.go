package model

type UserDetail struct {
	UserID         uint64  `gorm:"primaryKey"`
	Nickname       string  `gorm:"type:varchar(50);not null"`
	AvatarURL      string  `gorm:"type:varchar(512);column:avatar_url;default:'default_avatar.png'"`
	Bio            *string `gorm:"type:varchar(255);default:''"`
	FollowersCount int64   `gorm:"default:0"`
	FollowingCount int64   `gorm:"default:0"`
}

func (UserDetail) TableName() string {
	return "user_detail"
}
