package database

import (
	"context"
	"fmt"
	"time"

	"github.com/folio-studio/folio/pkg/models"
	"github.com/jackc/pgx/v5"
)

// CreateComment stores a comment and bumps the work's comment_count
func (r *Repository) CreateComment(ctx context.Context, comment *models.Comment) (err error) {
	defer func(start time.Time) { observe("create_comment", start, err) }(time.Now())

	return r.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO comments (work_id, author_id, author_name, body)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`, comment.WorkID, comment.AuthorID, comment.AuthorName, comment.Body).Scan(&comment.ID, &comment.CreatedAt)
		if isPgError(err, pgForeignKeyViolation) {
			return fmt.Errorf("work %d: %w", comment.WorkID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE works SET comment_count = comment_count + 1 WHERE id = $1
		`, comment.WorkID); err != nil {
			return fmt.Errorf("failed to increment comment count: %w", err)
		}
		return nil
	})
}

// GetComment retrieves a comment by ID
func (r *Repository) GetComment(ctx context.Context, id int64) (comment *models.Comment, err error) {
	defer func(start time.Time) { observe("get_comment", start, err) }(time.Now())

	var c models.Comment
	err = r.db.Pool.QueryRow(ctx, `
		SELECT id, work_id, author_id, author_name, body, created_at
		FROM comments
		WHERE id = $1
	`, id).Scan(&c.ID, &c.WorkID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedAt)
	if err != nil {
		err = notFound(err, fmt.Sprintf("comment %d", id))
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return &c, nil
}

// ListComments lists a work's comments oldest first
func (r *Repository) ListComments(ctx context.Context, workID int64, limit, offset int) (comments []*models.Comment, err error) {
	defer func(start time.Time) { observe("list_comments", start, err) }(time.Now())

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, work_id, author_id, author_name, body, created_at
		FROM comments
		WHERE work_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, workID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments = []*models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.WorkID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}

	return comments, rows.Err()
}

// DeleteComment removes a comment and decrements the work's comment_count
func (r *Repository) DeleteComment(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { observe("delete_comment", start, err) }(time.Now())

	return r.withTx(ctx, func(tx pgx.Tx) error {
		var workID int64
		err := tx.QueryRow(ctx, `DELETE FROM comments WHERE id = $1 RETURNING work_id`, id).Scan(&workID)
		if err != nil {
			err = notFound(err, fmt.Sprintf("comment %d", id))
			return fmt.Errorf("failed to delete comment: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE works SET comment_count = GREATEST(comment_count - 1, 0) WHERE id = $1
		`, workID); err != nil {
			return fmt.Errorf("failed to decrement comment count: %w", err)
		}
		return nil
	})
}
