package models

import "time"

// Notification is an inbox entry for one recipient
type Notification struct {
	ID          int64      `json:"id" db:"id"`
	RecipientID string     `json:"-" db:"recipient_id"`
	Kind        string     `json:"kind" db:"kind"`
	Title       string     `json:"title" db:"title"`
	Body        string     `json:"body" db:"body"`
	Link        string     `json:"link,omitempty" db:"link"`
	ReadAt      *time.Time `json:"readAt,omitempty" db:"read_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// Notification kinds
const (
	NotificationKindComment          = "comment"
	NotificationKindCommission       = "commission"
	NotificationKindCommissionStatus = "commission_status"
)
