package models

import "time"

// ThumbnailJob asks the worker to pick a poster frame for a video work.
// A nil Timestamp means automatic best-frame selection.
type ThumbnailJob struct {
	ID        string    `json:"id"`
	WorkID    int64     `json:"workId"`
	MediaKey  string    `json:"mediaKey"`
	Timestamp *float64  `json:"timestamp,omitempty"`
	Attempt   int       `json:"attempt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Thumbnail selection modes
const (
	ThumbnailModeAuto   = "auto"
	ThumbnailModeManual = "manual"
)

// Mode reports whether the job is automatic or manual
func (j *ThumbnailJob) Mode() string {
	if j.Timestamp != nil {
		return ThumbnailModeManual
	}
	return ThumbnailModeAuto
}

// ThumbnailRequest is the admin body for re-selecting a thumbnail
type ThumbnailRequest struct {
	Timestamp *float64 `json:"timestamp"`
}
