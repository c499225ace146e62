package likes

import (
	"context"
	"errors"
	"fmt"

	"github.com/folio-studio/folio/internal/apierr"
	"github.com/folio-studio/folio/internal/database"
	"github.com/folio-studio/folio/internal/logging"
	"github.com/folio-studio/folio/internal/metrics"
	"github.com/folio-studio/folio/internal/tracing"
	"github.com/folio-studio/folio/pkg/models"
)

// Store persists likes. ToggleLike must check for an existing like and
// create or delete it atomically for one (WorkID, ActorKey) pair, keeping
// the work's like counter in step.
type Store interface {
	ToggleLike(ctx context.Context, like *models.Like) (bool, error)
	HasLike(ctx context.Context, workID int64, actorKey string) (bool, error)
}

// Limiter reports whether another call under key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// WorkCache drops cached work records whose like count changed.
type WorkCache interface {
	InvalidateWork(ctx context.Context, workID int64) error
}

// Service implements the server side of likes/toggle and likes/check.
type Service struct {
	store   Store
	limiter Limiter
	cache   WorkCache
	logger  *logging.Logger
}

// NewService creates a like service. cache may be nil.
func NewService(store Store, limiter Limiter, cache WorkCache, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		store:   store,
		limiter: limiter,
		cache:   cache,
		logger:  logger,
	}
}

// Toggle flips the caller's like on workID and returns the new state.
// Anonymous callers are rate limited per fingerprint before anything is
// written.
func (s *Service) Toggle(ctx context.Context, identity *models.Identity, workID int64, fingerprint string) (*models.LikeStatus, error) {
	span, ctx := tracing.StartSpan(ctx, "likes.toggle")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "work_id", workID)

	actor, ok := ResolveActor(identity, fingerprint)
	if !ok {
		return nil, apierr.BadRequest("sign in or provide a fingerprint to like works")
	}
	if len(actor.Fingerprint) > MaxFingerprintLength {
		return nil, apierr.BadRequest("fingerprint is too long")
	}
	tracing.SetTag(span, "actor_kind", actor.Kind)

	if workID <= 0 {
		return nil, apierr.BadRequest("invalid work id")
	}

	if actor.Anonymous() {
		allowed, err := s.limiter.Allow(ctx, "like:"+actor.Fingerprint)
		if err != nil {
			tracing.LogError(span, err)
			return nil, apierr.Internal(fmt.Errorf("failed to check like rate limit: %w", err))
		}
		if !allowed {
			metrics.RecordLikeRateLimited()
			s.logger.LogLikeToggle(workID, actor.Kind, false, errors.New("rate limited"))
			return nil, apierr.TooManyRequests("too many likes, please wait a moment")
		}
	}

	liked, err := s.store.ToggleLike(ctx, actor.Like(workID))
	if err != nil {
		tracing.LogError(span, err)
		s.logger.LogLikeToggle(workID, actor.Kind, false, err)
		if errors.Is(err, database.ErrNotFound) {
			return nil, apierr.NotFound("work not found")
		}
		return nil, apierr.Internal(fmt.Errorf("failed to toggle like: %w", err))
	}

	metrics.RecordLikeToggle(actor.Kind, liked)
	s.logger.LogLikeToggle(workID, actor.Kind, liked, nil)
	tracing.SetTag(span, "liked", liked)

	if s.cache != nil {
		if err := s.cache.InvalidateWork(ctx, workID); err != nil {
			s.logger.WithWorkID(workID).WithError(err).Warn("Failed to invalidate cached work")
		}
	}

	return &models.LikeStatus{Liked: liked}, nil
}

// Check reports whether the caller currently likes workID. It never fails:
// missing identity and store errors both read as not liked.
func (s *Service) Check(ctx context.Context, identity *models.Identity, workID int64, fingerprint string) *models.LikeStatus {
	actor, ok := ResolveActor(identity, fingerprint)
	if !ok || workID <= 0 || len(actor.Fingerprint) > MaxFingerprintLength {
		return &models.LikeStatus{Liked: false}
	}

	liked, err := s.store.HasLike(ctx, workID, actor.Key)
	if err != nil {
		s.logger.WithWorkID(workID).WithError(err).Warn("Failed to check like")
		return &models.LikeStatus{Liked: false}
	}

	return &models.LikeStatus{Liked: liked}
}
