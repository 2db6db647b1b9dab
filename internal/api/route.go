package api

import (
	"GameZone/internal/api/config"
	"GameZone/internal/api/middleware"
	"GameZone/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(cfg *config.Config, group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.Server.AllowOrigins))
	logger.SetupGin(r, cfg.Logstash)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		userGroup := apiGroup.Group("/user")
		{
			userGroup.GET("/:user_id/simple", group.UserHandler.GetUserSimpleInfoById)
			userGroup.GET("/batch/simple", group.UserHandler.GetUserSimpleInfoByIds)
			userGroup.GET("/search", group.UserHandler.SearchUser)
		}

		userFollowGroup := apiGroup.Group("/user-relation")
		userFollowGroup.Use(middleware.AuthMiddleware())
		{
			userFollowGroup.GET("/followers", group.UserFollowHandler.GetUserFollowers)
			userFollowGroup.GET("/followers/count", group.UserFollowHandler.GetUserFollowersCount)
			userFollowGroup.GET("/followings", group.UserFollowHandler.GetUserFollowings)
			userFollowGroup.GET("/followings/count", group.UserFollowHandler.GetUserFollowingCount)
			userFollowGroup.GET("/isfollow/:following_id", group.UserFollowHandler.GetSomeoneIsFollowing)
			userFollowGroup.POST("/follow/:following_id", group.UserFollowHandler.Follow)
			userFollowGroup.DELETE("/follow/:following_id", group.UserFollowHandler.Unfollow)
		}

		imGroup := apiGroup.Group("/im")
		imGroup.Use(middleware.AuthMiddleware())
		{
			imGroup.GET("", group.WSHandler.Connect)
			imGroup.POST("/send", group.IMHandler.SendMessage)
			imGroup.GET("/history", group.IMHandler.GetChatHistory)
			imGroup.GET("/list", group.IMHandler.GetConversationList)
			imGroup.POST("/read", group.IMHandler.MarkAsRead)
		}

		bookmarkGroup := apiGroup.Group("/bookmarks")
		bookmarkGroup.Use(middleware.AuthMiddleware())
		{
			bookmarkGroup.GET("", group.GameBookmarkHandler.ListBookmarks)
			bookmarkGroup.POST("", group.GameBookmarkHandler.AddBookmark)
			bookmarkGroup.DELETE("/:game_id", group.GameBookmarkHandler.RemoveBookmark)
		}

		apiGroup.GET("/games", group.CatalogHandler.ListGames)
		apiGroup.GET("/games/trending", group.CatalogHandler.Trending)
		apiGroup.GET("/tags", group.CatalogHandler.Tags)
	}

	return r
}
