package consts

const (
	DefaultAvatarURL = "default_avatar.png"
)

const (
	// FollowCacheSize 关注/粉丝列表缓存的最大条数，超出部分回源 MySQL
	FollowCacheSize = 1000
)
