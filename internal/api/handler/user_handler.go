package handler

import (
	"GameZone/internal/api/dto"
	"GameZone/internal/pkg/response"
	"GameZone/internal/pkg/util"
	"GameZone/internal/service"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func (s *UserHandler) GetUserSimpleInfoById(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	user, err := s.userSvc.GetUserSimpleInfo(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// GetUserSimpleInfoByIds user_ids 为逗号分隔的 id 列表
func (s *UserHandler) GetUserSimpleInfoByIds(c *gin.Context) {
	query := strings.Trim(c.Query("user_ids"), "[]")
	if query == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userIDs, err := util.StrSliceToUInt64Slice(strings.Split(query, ","))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	users, err := s.userSvc.GetUserSimpleInfoByIds(c.Request.Context(), userIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// SearchUser 昵称搜索，走 ES
func (s *UserHandler) SearchUser(c *gin.Context) {
	var req dto.SearchUserDTO
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	users, err := s.userSvc.SearchUser(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}
