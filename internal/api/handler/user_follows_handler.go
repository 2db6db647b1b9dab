package handler

import (
	"GameZone/internal/api/dto"
	"GameZone/internal/model"
	"GameZone/internal/pkg/response"
	"GameZone/internal/pkg/util"
	"GameZone/internal/service"
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
)

type UserFollowHandler struct {
	userFollowSvc service.UserFollowService
	userSvc       service.UserService
}

func NewUserFollowHandler(userFollowSvc service.UserFollowService, userSvc service.UserService) *UserFollowHandler {
	return &UserFollowHandler{
		userFollowSvc: userFollowSvc,
		userSvc:       userSvc,
	}
}

func (s *UserFollowHandler) GetUserFollowers(c *gin.Context) {
	userId := c.GetUint64("user_id")
	limit, offset := s.getPagination(c)

	followers, err := s.userFollowSvc.GetUserFollowers(c.Request.Context(), userId, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := s.toFollowUsers(c.Request.Context(), followers, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *UserFollowHandler) GetUserFollowings(c *gin.Context) {
	userId := c.GetUint64("user_id")
	limit, offset := s.getPagination(c)

	followings, err := s.userFollowSvc.GetUserFollowing(c.Request.Context(), userId, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := s.toFollowUsers(c.Request.Context(), followings, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *UserFollowHandler) GetUserFollowersCount(c *gin.Context) {
	count, err := s.userFollowSvc.GetUserFollowerCount(c.Request.Context(), c.GetUint64("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, map[string]int64{"count": count})
}

func (s *UserFollowHandler) GetUserFollowingCount(c *gin.Context) {
	count, err := s.userFollowSvc.GetUserFollowingCount(c.Request.Context(), c.GetUint64("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, map[string]int64{"count": count})
}

func (s *UserFollowHandler) GetSomeoneIsFollowing(c *gin.Context) {
	followingId, ok := s.followingID(c)
	if !ok {
		return
	}
	isFollowing, err := s.userFollowSvc.GetSomeoneIsFollowing(c.Request.Context(), c.GetUint64("user_id"), followingId)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, isFollowing)
}

func (s *UserFollowHandler) Follow(c *gin.Context) {
	followingId, ok := s.followingID(c)
	if !ok {
		return
	}
	err := s.userFollowSvc.CreateUserFollow(c.Request.Context(), &model.UserFollow{
		FollowerID:  c.GetUint64("user_id"),
		FollowingID: followingId,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserFollowHandler) Unfollow(c *gin.Context) {
	followingId, ok := s.followingID(c)
	if !ok {
		return
	}
	err := s.userFollowSvc.DeleteUserFollow(c.Request.Context(), &model.UserFollow{
		FollowerID:  c.GetUint64("user_id"),
		FollowingID: followingId,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserFollowHandler) followingID(c *gin.Context) (uint64, bool) {
	followingId, err := strconv.ParseUint(c.Param("following_id"), 10, 64)
	if err != nil || followingId == 0 {
		response.Error(c, service.ErrParamInvalid)
		return 0, false
	}
	return followingId, true
}

func (s *UserFollowHandler) getPagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return util.Pagination(page, pageSize)
}

// toFollowUsers 补全昵称和头像，已注销的用户保留 id
func (s *UserFollowHandler) toFollowUsers(ctx context.Context, follows []*model.UserFollow, isFollowerList bool) ([]*dto.FollowUserDTO, error) {
	ids := make([]uint64, 0, len(follows))
	for _, f := range follows {
		if isFollowerList {
			ids = append(ids, f.FollowerID)
		} else {
			ids = append(ids, f.FollowingID)
		}
	}

	users, err := s.userSvc.GetUserSimpleInfoByIds(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]*dto.UserDTO, len(users))
	for _, u := range users {
		if u.UserID != nil {
			byID[*u.UserID] = u
		}
	}

	res := make([]*dto.FollowUserDTO, 0, len(follows))
	for i, f := range follows {
		item := &dto.FollowUserDTO{UserID: ids[i], FollowedAt: f.CreatedAt.UnixMilli()}
		if u, ok := byID[ids[i]]; ok {
			if u.Nickname != nil {
				item.Nickname = *u.Nickname
			}
			if u.AvatarURL != nil {
				item.AvatarURL = *u.AvatarURL
			}
		}
		res = append(res, item)
	}
	return res, nil
}
