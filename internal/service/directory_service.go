package service

import (
	"GameZone/internal/messenger"
	"GameZone/internal/pkg/consts"
	"context"
	"strconv"
)

type directoryServiceImpl struct {
	userFollowSvc UserFollowService
	userSvc       UserService
}

// NewDirectoryService 私信模块使用的用户目录
func NewDirectoryService(userFollowSvc UserFollowService, userSvc UserService) messenger.Directory {
	return &directoryServiceImpl{
		userFollowSvc: userFollowSvc,
		userSvc:       userSvc,
	}
}

// ListFollows 返回关注或粉丝的用户快照，顺序与关注时间倒序一致
func (s *directoryServiceImpl) ListFollows(ctx context.Context, userID string, kind messenger.FollowKind) ([]*messenger.User, error) {
	uid, err := strconv.ParseUint(userID, 10, 64)
	if err != nil {
		return nil, ErrParamInvalid
	}

	ids := make([]uint64, 0)
	switch kind {
	case messenger.FollowKindFollowing:
		follows, err := s.userFollowSvc.GetUserFollowing(ctx, uid, consts.FollowCacheSize, 0)
		if err != nil {
			return nil, err
		}
		for _, f := range follows {
			ids = append(ids, f.FollowingID)
		}
	case messenger.FollowKindFollowers:
		follows, err := s.userFollowSvc.GetUserFollowers(ctx, uid, consts.FollowCacheSize, 0)
		if err != nil {
			return nil, err
		}
		for _, f := range follows {
			ids = append(ids, f.FollowerID)
		}
	default:
		return nil, ErrParamInvalid
	}

	users, err := s.userSvc.GetUserSimpleInfoByIds(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := make([]*messenger.User, 0, len(users))
	for _, u := range users {
		if u.UserID == nil {
			continue
		}
		user := &messenger.User{ID: strconv.FormatUint(*u.UserID, 10)}
		if u.Nickname != nil {
			user.DisplayName = *u.Nickname
		}
		if u.AvatarURL != nil {
			user.AvatarURL = *u.AvatarURL
		}
		res = append(res, user)
	}
	return res, nil
}
