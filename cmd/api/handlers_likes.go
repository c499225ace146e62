package main

import (
	"strconv"

	"github.com/folio-studio/folio/internal/apierr"
	"github.com/folio-studio/folio/internal/middleware"
	"github.com/folio-studio/folio/internal/response"
	"github.com/folio-studio/folio/pkg/models"
	"github.com/gin-gonic/gin"
)

// Toggle like endpoint. Signed-in callers like as themselves, everyone else
// by browser fingerprint.
func (api *API) toggleLike(c *gin.Context) {
	var req models.ToggleLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apierr.BadRequest(err.Error()))
		return
	}

	status, err := api.likes.Toggle(c.Request.Context(), middleware.GetIdentity(c), req.WorkID, req.Fingerprint)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondOK(c, status)
}

// Check like endpoint. Always answers; anything unresolvable reads as not liked.
func (api *API) checkLike(c *gin.Context) {
	workID, err := strconv.ParseInt(c.Query("workId"), 10, 64)
	if err != nil || workID <= 0 {
		response.RespondOK(c, &models.LikeStatus{Liked: false})
		return
	}

	response.RespondOK(c, api.likes.Check(c.Request.Context(), middleware.GetIdentity(c), workID, c.Query("fingerprint")))
}
