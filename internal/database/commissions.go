package database

import (
	"context"
	"fmt"
	"time"

	"github.com/folio-studio/folio/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const commissionColumns = `id, requester_id, name, contact, kind, budget, description,
	status, handoff_status, created_at, updated_at`

func scanCommission(row pgx.Row) (*models.Commission, error) {
	var c models.Commission
	err := row.Scan(
		&c.ID, &c.RequesterID, &c.Name, &c.Contact, &c.Kind, &c.Budget, &c.Description,
		&c.Status, &c.HandoffStatus, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCommission stores a new commission request
func (r *Repository) CreateCommission(ctx context.Context, c *models.Commission) (err error) {
	defer func(start time.Time) { observe("create_commission", start, err) }(time.Now())

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = models.CommissionStatusNew
	}
	if c.HandoffStatus == "" {
		c.HandoffStatus = models.HandoffStatusPending
	}

	err = r.db.Pool.QueryRow(ctx, `
		INSERT INTO commissions (id, requester_id, name, contact, kind, budget, description, status, handoff_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, c.ID, c.RequesterID, c.Name, c.Contact, c.Kind, c.Budget, c.Description, c.Status, c.HandoffStatus,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create commission: %w", err)
	}

	return nil
}

// GetCommission retrieves a commission by ID
func (r *Repository) GetCommission(ctx context.Context, id string) (c *models.Commission, err error) {
	defer func(start time.Time) { observe("get_commission", start, err) }(time.Now())

	if _, parseErr := uuid.Parse(id); parseErr != nil {
		return nil, fmt.Errorf("commission %s: %w", id, ErrNotFound)
	}

	c, err = scanCommission(r.db.Pool.QueryRow(ctx,
		`SELECT `+commissionColumns+` FROM commissions WHERE id = $1`, id))
	if err != nil {
		err = notFound(err, fmt.Sprintf("commission %s", id))
		return nil, fmt.Errorf("failed to get commission: %w", err)
	}

	return c, nil
}

// ListCommissions lists commissions newest first, optionally by status
func (r *Repository) ListCommissions(ctx context.Context, status string, limit, offset int) (list []*models.Commission, err error) {
	defer func(start time.Time) { observe("list_commissions", start, err) }(time.Now())

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+commissionColumns+`
		FROM commissions
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	defer rows.Close()

	list = []*models.Commission{}
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commission: %w", err)
		}
		list = append(list, c)
	}

	return list, rows.Err()
}

// UpdateCommissionStatus sets the workflow status of a commission
func (r *Repository) UpdateCommissionStatus(ctx context.Context, id, status string) (c *models.Commission, err error) {
	defer func(start time.Time) { observe("update_commission_status", start, err) }(time.Now())

	if _, parseErr := uuid.Parse(id); parseErr != nil {
		return nil, fmt.Errorf("commission %s: %w", id, ErrNotFound)
	}

	c, err = scanCommission(r.db.Pool.QueryRow(ctx, `
		UPDATE commissions SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+commissionColumns, id, status))
	if err != nil {
		err = notFound(err, fmt.Sprintf("commission %s", id))
		return nil, fmt.Errorf("failed to update commission status: %w", err)
	}

	return c, nil
}

// SetCommissionHandoff records the outcome of the chat handoff
func (r *Repository) SetCommissionHandoff(ctx context.Context, id, handoffStatus string) (err error) {
	defer func(start time.Time) { observe("set_commission_handoff", start, err) }(time.Now())

	_, err = r.db.Pool.Exec(ctx, `
		UPDATE commissions SET handoff_status = $2, updated_at = NOW() WHERE id = $1
	`, id, handoffStatus)
	if err != nil {
		return fmt.Errorf("failed to set commission handoff: %w", err)
	}

	return nil
}
