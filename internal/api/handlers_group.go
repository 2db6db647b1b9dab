package api

import "GameZone/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	UserHandler         *handler.UserHandler
	UserFollowHandler   *handler.UserFollowHandler
	IMHandler           *handler.IMHandler
	WSHandler           *handler.WsHandler
	CatalogHandler      *handler.CatalogHandler
	GameBookmarkHandler *handler.GameBookmarkHandler
}
