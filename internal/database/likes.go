package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/folio-studio/folio/pkg/models"
	"github.com/jackc/pgx/v5"
)

// ToggleLike deletes the like if it exists and creates it otherwise, moving
// the work's like_count with it, all in one transaction. Drafts and missing
// works are ErrNotFound. The unique
// (work_id, actor_key) constraint serialises concurrent toggles from the
// same actor: a toggle that loses the insert race reports liked without
// touching the counter.
func (r *Repository) ToggleLike(ctx context.Context, like *models.Like) (liked bool, err error) {
	defer func(start time.Time) { observe("toggle_like", start, err) }(time.Now())

	err = r.withTx(ctx, func(tx pgx.Tx) error {
		var published bool
		err := tx.QueryRow(ctx, `SELECT published FROM works WHERE id = $1`, like.WorkID).Scan(&published)
		switch {
		case errors.Is(err, pgx.ErrNoRows) || (err == nil && !published):
			return fmt.Errorf("work %d: %w", like.WorkID, ErrNotFound)
		case err != nil:
			return fmt.Errorf("failed to load work: %w", err)
		}

		var removed int64
		err = tx.QueryRow(ctx, `
			DELETE FROM work_likes
			WHERE work_id = $1 AND actor_key = $2
			RETURNING id
		`, like.WorkID, like.ActorKey).Scan(&removed)

		switch {
		case err == nil:
			if _, err := tx.Exec(ctx, `
				UPDATE works SET like_count = GREATEST(like_count - 1, 0) WHERE id = $1
			`, like.WorkID); err != nil {
				return fmt.Errorf("failed to decrement like count: %w", err)
			}
			liked = false
			return nil
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("failed to delete like: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO work_likes (work_id, actor_key, user_id, fingerprint)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (work_id, actor_key) DO NOTHING
			RETURNING id, created_at
		`, like.WorkID, like.ActorKey, like.UserID, like.Fingerprint).Scan(&like.ID, &like.CreatedAt)

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// A concurrent toggle from the same actor inserted first.
			liked = true
			return nil
		case isPgError(err, pgForeignKeyViolation):
			return fmt.Errorf("work %d: %w", like.WorkID, ErrNotFound)
		case err != nil:
			return fmt.Errorf("failed to insert like: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE works SET like_count = like_count + 1 WHERE id = $1
		`, like.WorkID); err != nil {
			return fmt.Errorf("failed to increment like count: %w", err)
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return liked, nil
}

// HasLike reports whether actorKey currently likes workID. Likes on drafts
// are not visible.
func (r *Repository) HasLike(ctx context.Context, workID int64, actorKey string) (exists bool, err error) {
	defer func(start time.Time) { observe("has_like", start, err) }(time.Now())

	err = r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM work_likes l
			JOIN works w ON w.id = l.work_id
			WHERE l.work_id = $1 AND l.actor_key = $2 AND w.published
		)
	`, workID, actorKey).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}

	return exists, nil
}

// ReconcileLikeCounts rewrites like_count wherever it drifted from the
// number of like rows and returns how many works were fixed.
func (r *Repository) ReconcileLikeCounts(ctx context.Context) (fixed int64, err error) {
	defer func(start time.Time) { observe("reconcile_like_counts", start, err) }(time.Now())

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE works w
		SET like_count = c.actual
		FROM (
			SELECT w2.id, COUNT(l.id) AS actual
			FROM works w2
			LEFT JOIN work_likes l ON l.work_id = w2.id
			GROUP BY w2.id
		) c
		WHERE w.id = c.id AND w.like_count <> c.actual
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile like counts: %w", err)
	}

	return tag.RowsAffected(), nil
}
