package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/folio-studio/folio/internal/apierr"
	"github.com/folio-studio/folio/internal/database"
	"github.com/folio-studio/folio/internal/middleware"
	"github.com/folio-studio/folio/internal/response"
	"github.com/folio-studio/folio/pkg/models"
	"github.com/gin-gonic/gin"
)

type commissionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Create commission endpoint. Anonymous requests are limited per client IP.
func (api *API) createCommission(c *gin.Context) {
	var input models.CommissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, apierr.BadRequest(err.Error()))
		return
	}

	ctx := c.Request.Context()
	identity := middleware.GetIdentity(c)

	if identity == nil && api.commissionLimiter != nil {
		allowed, err := api.commissionLimiter.Allow(ctx, "commission:"+c.ClientIP())
		if err != nil {
			response.RespondError(c, apierr.Internal(err))
			return
		}
		if !allowed {
			response.RespondError(c, apierr.TooManyRequests("too many commission requests, try again later"))
			return
		}
	}

	commission := &models.Commission{
		Name:        strings.TrimSpace(input.Name),
		Contact:     strings.TrimSpace(input.Contact),
		Kind:        strings.TrimSpace(input.Kind),
		Budget:      strings.TrimSpace(input.Budget),
		Description: strings.TrimSpace(input.Description),
	}
	if identity != nil {
		userID := identity.UserID
		commission.RequesterID = &userID
	}

	if err := api.repo.CreateCommission(ctx, commission); err != nil {
		response.RespondError(c, apierr.Internal(err))
		return
	}

	api.handoff.HandOff(commission)
	api.notify(ctx, &models.Notification{
		RecipientID: api.adminUserID,
		Kind:        models.NotificationKindCommission,
		Title:       fmt.Sprintf("New %s commission from %s", commission.Kind, commission.Name),
		Body:        preview(commission.Description),
		Link:        "/commissions/" + commission.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"commission": commission,
		"chatUrl":    api.handoff.ChatLink(commission.ID),
	})
}

// List commissions endpoint
func (api *API) listCommissions(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !models.ValidCommissionStatus(status) {
		response.RespondError(c, apierr.BadRequest("unknown status"))
		return
	}
	limit, offset := pagination(c, database.DefaultListLimit, database.MaxListLimit)

	list, err := api.repo.ListCommissions(c.Request.Context(), status, limit, offset)
	if err != nil {
		response.RespondError(c, apierr.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"commissions": list,
		"limit":       limit,
		"offset":      offset,
	})
}

// Get commission endpoint
func (api *API) getCommission(c *gin.Context) {
	commission, err := api.repo.GetCommission(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondError(c, storeError(err, "commission"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"commission": commission,
		"chatUrl":    api.handoff.ChatLink(commission.ID),
	})
}

// Update commission status endpoint. Signed-in requesters are notified.
func (api *API) updateCommissionStatus(c *gin.Context) {
	id := c.Param("id")

	var req commissionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apierr.BadRequest(err.Error()))
		return
	}
	if !models.ValidCommissionStatus(req.Status) {
		response.RespondError(c, apierr.BadRequest("unknown status"))
		return
	}

	ctx := c.Request.Context()
	commission, err := api.repo.UpdateCommissionStatus(ctx, id, req.Status)
	if err != nil {
		response.RespondError(c, storeError(err, "commission"))
		return
	}

	if commission.RequesterID != nil {
		api.notify(ctx, &models.Notification{
			RecipientID: *commission.RequesterID,
			Kind:        models.NotificationKindCommissionStatus,
			Title:       "Commission update",
			Body:        fmt.Sprintf("Your %s commission is now %s", commission.Kind, commission.Status),
			Link:        "/commissions/" + commission.ID,
		})
	}

	response.RespondOK(c, commission)
}
