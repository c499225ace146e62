package main

import (
	"github.com/folio-studio/folio/internal/logging"
	"github.com/folio-studio/folio/internal/middleware"
	"github.com/gin-gonic/gin"
)

type routerConfig struct {
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
}

func setupRouter(api *API, cfg routerConfig, logger *logging.Logger) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	var limited []gin.HandlerFunc
	if cfg.RateLimiter != nil {
		limited = append(limited, middleware.RateLimit(cfg.RateLimiter))
	}

	router.GET("/health", api.healthCheck)

	// Likes answer every caller, so a stale token degrades to anonymous.
	// Check is a read the frontend fires per card and skips the IP limiter.
	likes := router.Group("/api/v1/likes", middleware.LenientIdentity())
	{
		likes.GET("/check", api.checkLike)
		likes.POST("/toggle", append(limited, api.toggleLike)...)
	}

	v1 := router.Group("/api/v1", middleware.OptionalIdentity())
	v1.Use(limited...)
	{
		// Works
		v1.GET("/works", api.listWorks)
		v1.GET("/works/:id", api.getWork)
		v1.GET("/works/:id/comments", api.listComments)

		// Commissions
		v1.POST("/commissions", api.createCommission)
	}

	user := v1.Group("")
	user.Use(middleware.RequireAuth())
	{
		user.POST("/works/:id/comments", api.createComment)
		user.DELETE("/comments/:commentId", api.deleteComment)

		user.GET("/notifications", api.listNotifications)
		user.POST("/notifications/:id/read", api.markNotificationRead)
		user.POST("/notifications/read-all", api.markAllNotificationsRead)
	}

	admin := v1.Group("")
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/works", api.createWork)
		admin.PUT("/works/:id", api.updateWork)
		admin.DELETE("/works/:id", api.deleteWork)
		admin.POST("/works/:id/media", api.uploadMedia)
		admin.POST("/works/:id/thumbnail", api.requestThumbnail)

		admin.GET("/commissions", api.listCommissions)
		admin.GET("/commissions/:id", api.getCommission)
		admin.PATCH("/commissions/:id", api.updateCommissionStatus)
	}

	return router
}
