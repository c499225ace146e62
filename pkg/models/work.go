package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Work is a single creative artifact shown in the gallery
type Work struct {
	ID                 int64     `json:"id" db:"id"`
	Title              string    `json:"title" db:"title"`
	Description        string    `json:"description" db:"description"`
	Kind               string    `json:"kind" db:"kind"`
	MediaKey           string    `json:"-" db:"media_key"`
	MediaURL           string    `json:"mediaUrl,omitempty" db:"media_url"`
	MediaType          string    `json:"mediaType,omitempty" db:"media_type"`
	ExternalURL        string    `json:"externalUrl,omitempty" db:"external_url"`
	ThumbnailKey       string    `json:"-" db:"thumbnail_key"`
	ThumbnailURL       string    `json:"thumbnailUrl,omitempty" db:"thumbnail_url"`
	ThumbnailTimestamp *float64  `json:"thumbnailTimestamp,omitempty" db:"thumbnail_timestamp"`
	ThumbnailScore     *float64  `json:"thumbnailScore,omitempty" db:"thumbnail_score"`
	Tags               []string  `json:"tags" db:"tags"`
	Metadata           Metadata  `json:"metadata,omitempty" db:"metadata"`
	Published          bool      `json:"published" db:"published"`
	LikeCount          int64     `json:"likeCount" db:"like_count"`
	CommentCount       int64     `json:"commentCount" db:"comment_count"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// Work kinds
const (
	WorkKindImage = "image"
	WorkKindVideo = "video"
	WorkKindAudio = "audio"
	WorkKindText  = "text"
	WorkKindWeb   = "web"
)

// ValidWorkKind reports whether kind is one of the gallery kinds
func ValidWorkKind(kind string) bool {
	switch kind {
	case WorkKindImage, WorkKindVideo, WorkKindAudio, WorkKindText, WorkKindWeb:
		return true
	}
	return false
}

// Work list sort orders
const (
	WorkSortNewest  = "newest"
	WorkSortOldest  = "oldest"
	WorkSortPopular = "popular"
)

// WorkFilter selects and orders works for listing
type WorkFilter struct {
	Kind               string
	Tag                string
	Sort               string
	Limit              int
	Offset             int
	IncludeUnpublished bool
}

// WorkInput carries the admin-editable fields of a work
type WorkInput struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description" binding:"max=10000"`
	Kind        string   `json:"kind" binding:"required"`
	ExternalURL string   `json:"externalUrl" binding:"omitempty,url"`
	Tags        []string `json:"tags"`
	Published   bool     `json:"published"`
}

// Metadata holds additional media metadata
type Metadata map[string]interface{}

// Value implements driver.Valuer for database storage
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(Metadata)
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata type %T", value)
	}

	return json.Unmarshal(data, m)
}
