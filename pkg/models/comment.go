package models

import "time"

// Comment is a visitor comment on a work
type Comment struct {
	ID         int64     `json:"id" db:"id"`
	WorkID     int64     `json:"workId" db:"work_id"`
	AuthorID   string    `json:"authorId" db:"author_id"`
	AuthorName string    `json:"authorName" db:"author_name"`
	Body       string    `json:"body" db:"body"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// CommentInput is the body of a new comment
type CommentInput struct {
	AuthorName string `json:"authorName" binding:"max=80"`
	Body       string `json:"body" binding:"required,min=1,max=2000"`
}
