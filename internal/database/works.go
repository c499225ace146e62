package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/folio-studio/folio/pkg/models"
	"github.com/jackc/pgx/v5"
)

const workColumns = `id, title, description, kind, media_key, media_type, external_url,
	thumbnail_key, thumbnail_timestamp, thumbnail_score, tags, metadata, published,
	like_count, comment_count, created_at, updated_at`

// Page sizes for list queries
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

func scanWork(row pgx.Row) (*models.Work, error) {
	var work models.Work
	err := row.Scan(
		&work.ID, &work.Title, &work.Description, &work.Kind, &work.MediaKey, &work.MediaType,
		&work.ExternalURL, &work.ThumbnailKey, &work.ThumbnailTimestamp, &work.ThumbnailScore,
		&work.Tags, &work.Metadata, &work.Published, &work.LikeCount, &work.CommentCount,
		&work.CreatedAt, &work.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if work.Tags == nil {
		work.Tags = []string{}
	}
	return &work, nil
}

// CreateWork creates a new work record
func (r *Repository) CreateWork(ctx context.Context, work *models.Work) (err error) {
	defer func(start time.Time) { observe("create_work", start, err) }(time.Now())

	if work.Tags == nil {
		work.Tags = []string{}
	}

	query := `
		INSERT INTO works (title, description, kind, external_url, tags, metadata, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, like_count, comment_count, created_at, updated_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		work.Title, work.Description, work.Kind, work.ExternalURL, work.Tags, work.Metadata, work.Published,
	).Scan(&work.ID, &work.LikeCount, &work.CommentCount, &work.CreatedAt, &work.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create work: %w", err)
	}

	return nil
}

// GetWork retrieves a work by ID
func (r *Repository) GetWork(ctx context.Context, id int64) (work *models.Work, err error) {
	defer func(start time.Time) { observe("get_work", start, err) }(time.Now())

	query := `SELECT ` + workColumns + ` FROM works WHERE id = $1`

	work, err = scanWork(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		err = notFound(err, fmt.Sprintf("work %d", id))
		return nil, fmt.Errorf("failed to get work: %w", err)
	}

	return work, nil
}

// UpdateWork updates the editable fields of a work
func (r *Repository) UpdateWork(ctx context.Context, work *models.Work) (err error) {
	defer func(start time.Time) { observe("update_work", start, err) }(time.Now())

	if work.Tags == nil {
		work.Tags = []string{}
	}

	query := `
		UPDATE works
		SET title = $2, description = $3, kind = $4, external_url = $5, tags = $6,
		    metadata = $7, published = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		work.ID, work.Title, work.Description, work.Kind, work.ExternalURL, work.Tags,
		work.Metadata, work.Published,
	).Scan(&work.UpdatedAt)
	if err != nil {
		err = notFound(err, fmt.Sprintf("work %d", work.ID))
		return fmt.Errorf("failed to update work: %w", err)
	}

	return nil
}

// DeleteWork deletes a work. Likes and comments cascade.
func (r *Repository) DeleteWork(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { observe("delete_work", start, err) }(time.Now())

	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM works WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete work: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("work %d: %w", id, ErrNotFound)
	}

	return nil
}

// SetWorkMedia records the stored media object of a work
func (r *Repository) SetWorkMedia(ctx context.Context, id int64, mediaKey, mediaType string) (err error) {
	defer func(start time.Time) { observe("set_work_media", start, err) }(time.Now())

	query := `
		UPDATE works
		SET media_key = $2, media_type = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, mediaKey, mediaType)
	if err != nil {
		return fmt.Errorf("failed to set work media: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("work %d: %w", id, ErrNotFound)
	}

	return nil
}

// UpdateWorkThumbnail stores the selected poster frame of a work
func (r *Repository) UpdateWorkThumbnail(ctx context.Context, id int64, key string, timestamp, score float64) (err error) {
	defer func(start time.Time) { observe("update_work_thumbnail", start, err) }(time.Now())

	query := `
		UPDATE works
		SET thumbnail_key = $2, thumbnail_timestamp = $3, thumbnail_score = $4, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, key, timestamp, score)
	if err != nil {
		return fmt.Errorf("failed to update work thumbnail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("work %d: %w", id, ErrNotFound)
	}

	return nil
}

// ListWorks lists works matching filter
func (r *Repository) ListWorks(ctx context.Context, filter models.WorkFilter) (works []*models.Work, err error) {
	defer func(start time.Time) { observe("list_works", start, err) }(time.Now())

	query, args := buildListWorksQuery(filter)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list works: %w", err)
	}
	defer rows.Close()

	works = []*models.Work{}
	for rows.Next() {
		work, err := scanWork(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work: %w", err)
		}
		works = append(works, work)
	}

	return works, rows.Err()
}

// buildListWorksQuery renders the filtered, ordered and paginated select
func buildListWorksQuery(filter models.WorkFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)

	if !filter.IncludeUnpublished {
		where = append(where, "published = TRUE")
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		where = append(where, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}

	query := `SELECT ` + workColumns + ` FROM works`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	switch filter.Sort {
	case models.WorkSortOldest:
		query += " ORDER BY created_at ASC, id ASC"
	case models.WorkSortPopular:
		query += " ORDER BY like_count DESC, created_at DESC, id DESC"
	default:
		query += " ORDER BY created_at DESC, id DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return query, args
}
