package database

import (
	"context"
	"fmt"
	"time"

	"github.com/folio-studio/folio/pkg/models"
)

// CreateNotification adds an entry to a recipient's inbox
func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) (err error) {
	defer func(start time.Time) { observe("create_notification", start, err) }(time.Now())

	err = r.db.Pool.QueryRow(ctx, `
		INSERT INTO notifications (recipient_id, kind, title, body, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, n.RecipientID, n.Kind, n.Title, n.Body, n.Link).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListNotifications lists a recipient's notifications newest first
func (r *Repository) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) (list []*models.Notification, err error) {
	defer func(start time.Time) { observe("list_notifications", start, err) }(time.Now())

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, recipient_id, kind, title, body, link, read_at, created_at
		FROM notifications
		WHERE recipient_id = $1 AND (NOT $2 OR read_at IS NULL)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, recipientID, unreadOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	list = []*models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Kind, &n.Title, &n.Body, &n.Link, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		list = append(list, &n)
	}

	return list, rows.Err()
}

// MarkNotificationRead marks one of the recipient's notifications read
func (r *Repository) MarkNotificationRead(ctx context.Context, recipientID string, id int64) (err error) {
	defer func(start time.Time) { observe("mark_notification_read", start, err) }(time.Now())

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND recipient_id = $2
	`, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}

	return nil
}

// MarkAllNotificationsRead marks every unread notification of the recipient
// read and returns how many changed
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, recipientID string) (n int64, err error) {
	defer func(start time.Time) { observe("mark_all_notifications_read", start, err) }(time.Now())

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE notifications SET read_at = NOW()
		WHERE recipient_id = $1 AND read_at IS NULL
	`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return tag.RowsAffected(), nil
}
