package models

import "time"

// Like is the existence-as-state record of one actor's like on one work.
// At most one exists per (WorkID, ActorKey).
type Like struct {
	ID          int64     `json:"id" db:"id"`
	WorkID      int64     `json:"workId" db:"work_id"`
	ActorKey    string    `json:"-" db:"actor_key"`
	UserID      *string   `json:"userId,omitempty" db:"user_id"`
	Fingerprint *string   `json:"-" db:"fingerprint"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// ToggleLikeRequest is the body of likes/toggle
type ToggleLikeRequest struct {
	WorkID      int64  `json:"workId" binding:"required"`
	Fingerprint string `json:"fingerprint,omitempty" binding:"max=128"`
}

// LikeStatus is returned by both likes/toggle and likes/check
type LikeStatus struct {
	Liked bool `json:"liked"`
}
