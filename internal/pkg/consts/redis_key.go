package consts

const (
	UserSimpleInfoKey     = "user:simple:info:"
	UserFollowerKey       = "user:follower:"
	UserFollowingKey      = "user:following:"
	UserFollowerCountKey  = "user:follower:count:"
	UserFollowingCountKey = "user:following:count:"
	UserFollowDirtyKey    = "user:follow:dirty"
	IMConversationKey     = "im:conversation:"
	IMStatusKey           = "im:status:"
	IMFollowingKey        = "im:following:"
	CatalogCacheKey       = "catalog:cache:"
	TokenBlacklistKey     = "token:blacklist:"
)

const (
	UserDetailLock = "user:detail:lock:"
	FollowSyncLock = "lock:follow:sync"
)
