package main

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/folio-studio/folio/internal/apierr"
	"github.com/folio-studio/folio/internal/database"
	"github.com/folio-studio/folio/internal/logging"
	"github.com/folio-studio/folio/pkg/models"
	"github.com/gin-gonic/gin"
)

// Repository is the relational store behind the API
type Repository interface {
	Health(ctx context.Context) error

	CreateWork(ctx context.Context, work *models.Work) error
	GetWork(ctx context.Context, id int64) (*models.Work, error)
	UpdateWork(ctx context.Context, work *models.Work) error
	DeleteWork(ctx context.Context, id int64) error
	SetWorkMedia(ctx context.Context, id int64, mediaKey, mediaType string) error
	ListWorks(ctx context.Context, filter models.WorkFilter) ([]*models.Work, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	ListComments(ctx context.Context, workID int64, limit, offset int) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, id int64) error

	CreateCommission(ctx context.Context, c *models.Commission) error
	GetCommission(ctx context.Context, id string) (*models.Commission, error)
	ListCommissions(ctx context.Context, status string, limit, offset int) ([]*models.Commission, error)
	UpdateCommissionStatus(ctx context.Context, id, status string) (*models.Commission, error)

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, recipientID string, id int64) error
	MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error)
}

// ObjectStore holds uploaded media
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, objectName string) error
	DeletePrefix(ctx context.Context, prefix string) error
	GetURL(ctx context.Context, objectName string) (string, error)
	Health(ctx context.Context) error
}

// WorkCache caches works as rendered to clients
type WorkCache interface {
	GetWork(ctx context.Context, workID int64) (*models.Work, error)
	WorkGeneration(ctx context.Context, workID int64) (int64, error)
	SetWork(ctx context.Context, work *models.Work, gen int64, ttl time.Duration) error
	InvalidateWork(ctx context.Context, workID int64) error
	Ping(ctx context.Context) error
}

// JobPublisher enqueues thumbnail jobs
type JobPublisher interface {
	PublishThumbnailJob(ctx context.Context, job *models.ThumbnailJob) error
}

// LikeService implements likes/toggle and likes/check
type LikeService interface {
	Toggle(ctx context.Context, identity *models.Identity, workID int64, fingerprint string) (*models.LikeStatus, error)
	Check(ctx context.Context, identity *models.Identity, workID int64, fingerprint string) *models.LikeStatus
}

// CommissionHandoff forwards commissions to the chat channel
type CommissionHandoff interface {
	HandOff(c *models.Commission)
	ChatLink(commissionID string) string
}

// Limiter is a keyed fixed-window limiter
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type API struct {
	repo              Repository
	storage           ObjectStore
	cache             WorkCache
	queue             JobPublisher
	likes             LikeService
	handoff           CommissionHandoff
	commissionLimiter Limiter
	logger            *logging.Logger

	adminUserID    string
	workTTL        time.Duration
	maxUploadBytes int64
}

func (api *API) log() *logging.Logger {
	if api.logger == nil {
		return logging.Nop()
	}
	return api.logger
}

// idParam parses a positive int64 path parameter
func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.BadRequest("invalid " + name)
	}
	return id, nil
}

// pagination reads limit and offset query parameters
func pagination(c *gin.Context, defaultLimit, maxLimit int) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// notify writes an inbox entry. Failures are logged and never surface.
func (api *API) notify(ctx context.Context, n *models.Notification) {
	if n.RecipientID == "" {
		return
	}
	if err := api.repo.CreateNotification(ctx, n); err != nil {
		api.log().WithError(err).WithField("kind", n.Kind).Warn("Failed to create notification")
	}
}

// storeError maps repository errors to API errors
func storeError(err error, what string) error {
	if errors.Is(err, database.ErrNotFound) {
		return apierr.NotFound(what + " not found")
	}
	return apierr.Internal(err)
}
