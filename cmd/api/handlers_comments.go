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

const notificationPreviewLen = 140

func preview(s string) string {
	r := []rune(s)
	if len(r) <= notificationPreviewLen {
		return s
	}
	return string(r[:notificationPreviewLen]) + "…"
}

// List comments endpoint
func (api *API) listComments(c *gin.Context) {
	workID, err := idParam(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	limit, offset := pagination(c, database.DefaultListLimit, database.MaxListLimit)

	comments, err := api.repo.ListComments(c.Request.Context(), workID, limit, offset)
	if err != nil {
		response.RespondError(c, apierr.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"limit":    limit,
		"offset":   offset,
	})
}

// Create comment endpoint
func (api *API) createComment(c *gin.Context) {
	workID, err := idParam(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}

	var input models.CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, apierr.BadRequest(err.Error()))
		return
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		response.RespondError(c, apierr.BadRequest("comment body is required"))
		return
	}

	identity := middleware.GetIdentity(c)
	authorName := strings.TrimSpace(input.AuthorName)
	if authorName == "" {
		authorName = identity.Name
	}
	if authorName == "" {
		authorName = "Anonymous"
	}

	ctx := c.Request.Context()
	comment := &models.Comment{
		WorkID:     workID,
		AuthorID:   identity.UserID,
		AuthorName: authorName,
		Body:       body,
	}
	if err := api.repo.CreateComment(ctx, comment); err != nil {
		response.RespondError(c, storeError(err, "work"))
		return
	}
	api.invalidateWork(ctx, workID)

	if !identity.IsAdmin() {
		api.notify(ctx, &models.Notification{
			RecipientID: api.adminUserID,
			Kind:        models.NotificationKindComment,
			Title:       fmt.Sprintf("%s commented", authorName),
			Body:        preview(body),
			Link:        fmt.Sprintf("/works/%d#comment-%d", workID, comment.ID),
		})
	}

	response.RespondCreated(c, comment)
}

// Delete comment endpoint. Authors may delete their own comments.
func (api *API) deleteComment(c *gin.Context) {
	id, err := idParam(c, "commentId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	ctx := c.Request.Context()

	comment, err := api.repo.GetComment(ctx, id)
	if err != nil {
		response.RespondError(c, storeError(err, "comment"))
		return
	}

	identity := middleware.GetIdentity(c)
	if !identity.IsAdmin() && comment.AuthorID != identity.UserID {
		response.RespondError(c, apierr.Forbidden("cannot delete another user's comment"))
		return
	}

	if err := api.repo.DeleteComment(ctx, id); err != nil {
		response.RespondError(c, storeError(err, "comment"))
		return
	}
	api.invalidateWork(ctx, comment.WorkID)

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully", "id": id})
}
