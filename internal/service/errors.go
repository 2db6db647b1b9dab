package service

import (
	"GameZone/internal/messenger"
	"errors"
)

const (
	BadRequest          = 400
	NotFound            = 404
	InternalServerError = 500
	BadGateway          = 502
)

var (
	ErrParamInvalid       = errors.New("参数错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUserFollowExist    = errors.New("用户已关注")
	ErrUserFollowLimit    = errors.New("用户关注数量超过限制")
	ErrUserFollowSelf     = errors.New("用户不能关注自己")
	ErrTargetUserInvalid  = errors.New("目标用户无效")
	ErrConversation       = errors.New("会话异常")
	ErrCatalogUnavailable = errors.New("游戏目录服务暂不可用")
	ErrBookmarkExist      = errors.New("游戏已收藏")
	ErrBookmarkLimit      = errors.New("收藏数量超过限制")
	ErrBookmarkNotFound   = errors.New("游戏未收藏")
	UnExpectedError       = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:               BadRequest,
	ErrUserNotFound:               NotFound,
	ErrUserFollowExist:            BadRequest,
	ErrUserFollowLimit:            BadRequest,
	ErrUserFollowSelf:             BadRequest,
	ErrTargetUserInvalid:          BadRequest,
	ErrConversation:               BadRequest,
	ErrCatalogUnavailable:         BadGateway,
	ErrBookmarkExist:              BadRequest,
	ErrBookmarkLimit:              BadRequest,
	ErrBookmarkNotFound:           NotFound,
	UnExpectedError:               InternalServerError,
	messenger.ErrEmptyMessage:     BadRequest,
	messenger.ErrNoMoreHistory:    BadRequest,
	messenger.ErrNoConversation:   BadRequest,
	messenger.ErrSelfConversation: BadRequest,
}

// CodeOf 返回错误链上第一个已登记错误的业务码
func CodeOf(err error) (int, error, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, err, true
	}
	for known, code := range ErrorMap {
		if errors.Is(err, known) {
			return code, known, true
		}
	}
	return InternalServerError, err, false
}
