package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/folio-studio/folio/internal/apierr"
	"github.com/folio-studio/folio/internal/database"
	"github.com/folio-studio/folio/internal/metrics"
	"github.com/folio-studio/folio/internal/middleware"
	"github.com/folio-studio/folio/internal/response"
	"github.com/folio-studio/folio/internal/storage"
	"github.com/folio-studio/folio/pkg/models"
	"github.com/gin-gonic/gin"
)

// renderWork fills in presigned media URLs. Signing failures leave the URL empty.
func (api *API) renderWork(ctx context.Context, work *models.Work) *models.Work {
	if work.MediaKey != "" {
		url, err := api.storage.GetURL(ctx, work.MediaKey)
		if err != nil {
			api.log().WithWorkID(work.ID).WithError(err).Warn("Failed to sign media URL")
		}
		work.MediaURL = url
	}
	if work.ThumbnailKey != "" {
		url, err := api.storage.GetURL(ctx, work.ThumbnailKey)
		if err != nil {
			api.log().WithWorkID(work.ID).WithError(err).Warn("Failed to sign thumbnail URL")
		}
		work.ThumbnailURL = url
	}
	return work
}

func (api *API) invalidateWork(ctx context.Context, workID int64) {
	if api.cache == nil {
		return
	}
	if err := api.cache.InvalidateWork(ctx, workID); err != nil {
		api.log().WithWorkID(workID).WithError(err).Warn("Failed to invalidate cached work")
	}
}

// List works endpoint
func (api *API) listWorks(c *gin.Context) {
	limit, offset := pagination(c, database.DefaultListLimit, database.MaxListLimit)
	filter := models.WorkFilter{
		Kind:   c.Query("kind"),
		Tag:    c.Query("tag"),
		Sort:   c.DefaultQuery("sort", models.WorkSortNewest),
		Limit:  limit,
		Offset: offset,
	}

	if filter.Kind != "" && !models.ValidWorkKind(filter.Kind) {
		response.RespondError(c, apierr.BadRequest("unknown kind"))
		return
	}
	switch filter.Sort {
	case models.WorkSortNewest, models.WorkSortOldest, models.WorkSortPopular:
	default:
		response.RespondError(c, apierr.BadRequest("sort must be newest, oldest or popular"))
		return
	}
	if c.Query("includeUnpublished") == "true" && middleware.GetIdentity(c).IsAdmin() {
		filter.IncludeUnpublished = true
	}

	works, err := api.repo.ListWorks(c.Request.Context(), filter)
	if err != nil {
		response.RespondError(c, apierr.Internal(err))
		return
	}
	for _, work := range works {
		api.renderWork(c.Request.Context(), work)
	}

	c.JSON(http.StatusOK, gin.H{
		"works":  works,
		"limit":  limit,
		"offset": offset,
	})
}

// Get work endpoint. Unpublished works are hidden from everyone but the admin.
func (api *API) getWork(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	ctx := c.Request.Context()
	isAdmin := middleware.GetIdentity(c).IsAdmin()

	var work *models.Work
	if api.cache != nil {
		work, err = api.cache.GetWork(ctx, id)
		if err != nil {
			api.log().WithWorkID(id).WithError(err).Warn("Failed to read cached work")
			work = nil
		}
	}

	if work == nil {
		// The generation is read before the row so an invalidation racing
		// this load keeps the older copy out of the cache.
		cacheable := api.cache != nil
		var gen int64
		if cacheable {
			if gen, err = api.cache.WorkGeneration(ctx, id); err != nil {
				api.log().WithWorkID(id).WithError(err).Warn("Failed to read work generation")
				cacheable = false
			}
		}

		work, err = api.repo.GetWork(ctx, id)
		if err != nil {
			response.RespondError(c, storeError(err, "work"))
			return
		}
		api.renderWork(ctx, work)

		if cacheable {
			if err := api.cache.SetWork(ctx, work, gen, api.workTTL); err != nil {
				api.log().WithWorkID(id).WithError(err).Warn("Failed to cache work")
			}
		}
	}

	if !work.Published && !isAdmin {
		response.RespondError(c, apierr.NotFound("work not found"))
		return
	}

	response.RespondOK(c, work)
}

func validateWorkInput(input *models.WorkInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return apierr.BadRequest("title is required")
	}
	if !models.ValidWorkKind(input.Kind) {
		return apierr.BadRequest("kind must be image, video, audio, text or web")
	}
	tags := input.Tags[:0]
	for _, tag := range input.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tags = append(tags, tag)
		}
	}
	input.Tags = tags
	return nil
}

// Create work endpoint
func (api *API) createWork(c *gin.Context) {
	var input models.WorkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, apierr.BadRequest(err.Error()))
		return
	}
	if err := validateWorkInput(&input); err != nil {
		response.RespondError(c, err)
		return
	}

	work := &models.Work{
		Title:       input.Title,
		Description: input.Description,
		Kind:        input.Kind,
		ExternalURL: input.ExternalURL,
		Tags:        input.Tags,
		Published:   input.Published,
	}
	if err := api.repo.CreateWork(c.Request.Context(), work); err != nil {
		response.RespondError(c, apierr.Internal(err))
		return
	}

	response.RespondCreated(c, work)
}

// Update work endpoint
func (api *API) updateWork(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}

	var input models.WorkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, apierr.BadRequest(err.Error()))
		return
	}
	if err := validateWorkInput(&input); err != nil {
		response.RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	work, err := api.repo.GetWork(ctx, id)
	if err != nil {
		response.RespondError(c, storeError(err, "work"))
		return
	}

	work.Title = input.Title
	work.Description = input.Description
	work.Kind = input.Kind
	work.ExternalURL = input.ExternalURL
	work.Tags = input.Tags
	work.Published = input.Published

	if err := api.repo.UpdateWork(ctx, work); err != nil {
		response.RespondError(c, storeError(err, "work"))
		return
	}
	api.invalidateWork(ctx, id)

	response.RespondOK(c, api.renderWork(ctx, work))
}

// Delete work endpoint. Stored objects are removed best effort.
func (api *API) deleteWork(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	ctx := c.Request.Context()

	if _, err := api.repo.GetWork(ctx, id); err != nil {
		response.RespondError(c, storeError(err, "work"))
		return
	}

	if err := api.storage.DeletePrefix(ctx, fmt.Sprintf("works/%d/", id)); err != nil {
		api.log().WithWorkID(id).WithError(err).Warn("Failed to delete stored objects")
	}

	if err := api.repo.DeleteWork(ctx, id); err != nil {
		response.RespondError(c, storeError(err, "work"))
		return
	}
	api.invalidateWork(ctx, id)

	c.JSON(http.StatusOK, gin.H{"message": "Work deleted successfully", "id": id})
}

// Upload media endpoint. Video uploads queue automatic thumbnail selection.
func (api *API) uploadMedia(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	ctx := c.Request.Context()

	work, err := api.repo.GetWork(ctx, id)
	if err != nil {
		response.RespondError(c, storeError(err, "work"))
		return
	}

	if api.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, api.maxUploadBytes)
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, apierr.BadRequest("no media file provided"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.ContentType(header.Filename)
	}
	kind := storage.KindForContentType(contentType)
	if kind == "" {
		response.RespondError(c, apierr.BadRequest("unsupported media type"))
		return
	}
	if kind != work.Kind && work.Kind != models.WorkKindWeb {
		response.RespondError(c, apierr.BadRequest(fmt.Sprintf("a %s work cannot hold %s media", work.Kind, kind)))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.RespondError(c, apierr.Internal(err))
		return
	}
	defer file.Close()

	key := storage.MediaKey(id, header.Filename)
	if err := api.storage.Upload(ctx, key, file, header.Size, contentType); err != nil {
		response.RespondError(c, apierr.Internal(err))
		return
	}
	if err := api.repo.SetWorkMedia(ctx, id, key, contentType); err != nil {
		response.RespondError(c, storeError(err, "work"))
		return
	}
	metrics.RecordMediaUpload(kind, header.Size)

	if work.MediaKey != "" && work.MediaKey != key {
		if err := api.storage.Delete(ctx, work.MediaKey); err != nil {
			api.log().WithWorkID(id).WithError(err).Warn("Failed to delete replaced media")
		}
	}
	work.MediaKey = key
	work.MediaType = contentType
	api.invalidateWork(ctx, id)

	queued := false
	if kind == models.WorkKindVideo {
		job := &models.ThumbnailJob{WorkID: id, MediaKey: key}
		if err := api.queue.PublishThumbnailJob(ctx, job); err != nil {
			api.log().WithWorkID(id).WithError(err).Warn("Failed to queue thumbnail job")
		} else {
			queued = true
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"work":            api.renderWork(ctx, work),
		"thumbnailQueued": queued,
	})
}

// Request thumbnail endpoint. A timestamp selects that frame; no body runs
// automatic best-frame selection.
func (api *API) requestThumbnail(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}

	var req models.ThumbnailRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, apierr.BadRequest(err.Error()))
			return
		}
	}
	if req.Timestamp != nil && *req.Timestamp < 0 {
		response.RespondError(c, apierr.BadRequest("timestamp must not be negative"))
		return
	}

	ctx := c.Request.Context()
	work, err := api.repo.GetWork(ctx, id)
	if err != nil {
		response.RespondError(c, storeError(err, "work"))
		return
	}
	if work.Kind != models.WorkKindVideo || work.MediaKey == "" {
		response.RespondError(c, apierr.BadRequest("work has no video to take a thumbnail from"))
		return
	}

	job := &models.ThumbnailJob{WorkID: id, MediaKey: work.MediaKey, Timestamp: req.Timestamp}
	if err := api.queue.PublishThumbnailJob(ctx, job); err != nil {
		response.RespondError(c, apierr.Internal(err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job": job, "mode": job.Mode()})
}
