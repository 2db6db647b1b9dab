package handler

import (
	"GameZone/internal/api/dto"
	"GameZone/internal/pkg/response"
	"GameZone/internal/pkg/util"
	"GameZone/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type GameBookmarkHandler struct {
	bookmarkSvc service.GameBookmarkService
}

func NewGameBookmarkHandler(bookmarkSvc service.GameBookmarkService) *GameBookmarkHandler {
	return &GameBookmarkHandler{bookmarkSvc: bookmarkSvc}
}

func (s *GameBookmarkHandler) ListBookmarks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	limit, offset := util.Pagination(page, pageSize)

	res, err := s.bookmarkSvc.ListBookmarks(c.Request.Context(), c.GetUint64("user_id"), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *GameBookmarkHandler) AddBookmark(c *gin.Context) {
	var req dto.AddBookmarkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	if err := s.bookmarkSvc.AddBookmark(c.Request.Context(), c.GetUint64("user_id"), &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *GameBookmarkHandler) RemoveBookmark(c *gin.Context) {
	gameId, err := strconv.ParseInt(c.Param("game_id"), 10, 64)
	if err != nil || gameId <= 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err = s.bookmarkSvc.RemoveBookmark(c.Request.Context(), c.GetUint64("user_id"), gameId); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
