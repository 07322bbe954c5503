// Package models contains data structures for the application's domain models.
package models

import "time"

// Comment represents a comment on a post. ParentID, when set, references
// another comment on the same post, forming a forest of reply trees.
//
// Upvotes and Downvotes are derived state: they must always equal the
// count of Vote rows of the matching polarity referencing this comment.
// They are recomputed from the votes table after every mutation, never
// incremented in place.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	Upvotes   int       `gorm:"not null;default:0" json:"upvotes"`
	Downvotes int       `gorm:"not null;default:0" json:"downvotes"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentResponse is a comment joined with its author's public fields.
type CommentResponse struct {
	ID        uint       `json:"id"`
	Text      string     `json:"text"`
	PostID    uint       `json:"post_id"`
	ParentID  *uint      `json:"parent_id"`
	Upvotes   int        `json:"upvotes"`
	Downvotes int        `json:"downvotes"`
	User      PublicUser `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Response shapes the comment for API output.
func (c *Comment) Response() *CommentResponse {
	return &CommentResponse{
		ID:        c.ID,
		Text:      c.Text,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Upvotes:   c.Upvotes,
		Downvotes: c.Downvotes,
		User:      c.User.Public(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
