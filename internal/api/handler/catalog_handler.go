package handler

import (
	"GameZone/internal/api/dto"
	"GameZone/internal/pkg/response"
	"GameZone/internal/pkg/util"
	"GameZone/internal/service"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogSvc service.CatalogService
}

func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

func (s *CatalogHandler) ListGames(c *gin.Context) {
	query, ok := s.bindQuery(c)
	if !ok {
		return
	}
	page, err := s.catalogSvc.ListGames(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *CatalogHandler) Trending(c *gin.Context) {
	query, ok := s.bindQuery(c)
	if !ok {
		return
	}
	page, err := s.catalogSvc.Trending(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *CatalogHandler) Tags(c *gin.Context) {
	query, ok := s.bindQuery(c)
	if !ok {
		return
	}
	page, err := s.catalogSvc.Tags(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *CatalogHandler) bindQuery(c *gin.Context) (*dto.CatalogQueryDTO, bool) {
	var req dto.CatalogQueryDTO
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return nil, false
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return nil, false
	}
	return &req, true
}
