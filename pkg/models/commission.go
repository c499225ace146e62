package models

import "time"

// Commission is a request for custom work, handed off to the chat channel
type Commission struct {
	ID            string    `json:"id" db:"id"`
	RequesterID   *string   `json:"requesterId,omitempty" db:"requester_id"`
	Name          string    `json:"name" db:"name"`
	Contact       string    `json:"contact" db:"contact"`
	Kind          string    `json:"kind" db:"kind"`
	Budget        string    `json:"budget,omitempty" db:"budget"`
	Description   string    `json:"description" db:"description"`
	Status        string    `json:"status" db:"status"`
	HandoffStatus string    `json:"handoffStatus" db:"handoff_status"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// CommissionInput is the public commission form
type CommissionInput struct {
	Name        string `json:"name" binding:"required,max=100"`
	Contact     string `json:"contact" binding:"required,max=200"`
	Kind        string `json:"kind" binding:"required"`
	Budget      string `json:"budget" binding:"max=100"`
	Description string `json:"description" binding:"required,max=5000"`
}

// Commission statuses
const (
	CommissionStatusNew       = "new"
	CommissionStatusContacted = "contacted"
	CommissionStatusAccepted  = "accepted"
	CommissionStatusDeclined  = "declined"
	CommissionStatusDone      = "done"
)

// Handoff statuses
const (
	HandoffStatusPending = "pending"
	HandoffStatusSent    = "sent"
	HandoffStatusFailed  = "failed"
)

// ValidCommissionStatus reports whether status is a known commission status
func ValidCommissionStatus(status string) bool {
	switch status {
	case CommissionStatusNew, CommissionStatusContacted, CommissionStatusAccepted,
		CommissionStatusDeclined, CommissionStatusDone:
		return true
	}
	return false
}

// CommissionHandoff is the payload posted to the chat channel
type CommissionHandoff struct {
	Event      string     `json:"event"`
	Timestamp  time.Time  `json:"timestamp"`
	Commission Commission `json:"commission"`
	ChatURL    string     `json:"chatUrl,omitempty"`
}
