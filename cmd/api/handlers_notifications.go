package main

import (
	"context"
	"net/http"
	"time"

	"github.com/folio-studio/folio/internal/apierr"
	"github.com/folio-studio/folio/internal/database"
	"github.com/folio-studio/folio/internal/middleware"
	"github.com/folio-studio/folio/internal/response"
	"github.com/gin-gonic/gin"
)

// List notifications endpoint
func (api *API) listNotifications(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	limit, offset := pagination(c, database.DefaultListLimit, database.MaxListLimit)
	unreadOnly := c.Query("unread") == "true"

	list, err := api.repo.ListNotifications(c.Request.Context(), identity.UserID, unreadOnly, limit, offset)
	if err != nil {
		response.RespondError(c, apierr.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": list,
		"limit":         limit,
		"offset":        offset,
	})
}

// Mark notification read endpoint
func (api *API) markNotificationRead(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}

	identity := middleware.GetIdentity(c)
	if err := api.repo.MarkNotificationRead(c.Request.Context(), identity.UserID, id); err != nil {
		response.RespondError(c, storeError(err, "notification"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "read": true})
}

// Mark all notifications read endpoint
func (api *API) markAllNotificationsRead(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	updated, err := api.repo.MarkAllNotificationsRead(c.Request.Context(), identity.UserID)
	if err != nil {
		response.RespondError(c, apierr.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if err := api.repo.Health(ctx); err != nil {
		api.log().WithError(err).Warn("Database health check failed")
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if err := api.storage.Health(ctx); err != nil {
		api.log().WithError(err).Warn("Storage health check failed")
		checks["storage"] = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	switch {
	case api.cache == nil:
		checks["redis"] = "disabled"
	case api.cache.Ping(ctx) != nil:
		checks["redis"] = "unavailable"
		status = http.StatusServiceUnavailable
	default:
		checks["redis"] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": checks})
}
