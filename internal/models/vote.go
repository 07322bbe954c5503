package models

import "time"

// Vote polarities. Absence of a Vote row is "no vote".
const (
	VoteUp   = 1
	VoteDown = -1
)

// Vote records a single user's up or down vote on a comment.
// The combination of UserID and CommentID must be unique; this index is
// the only cross-request concurrency control the voting path relies on.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_comment" json:"user_id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_user_comment" json:"comment_id"`
	VoteType  int       `gorm:"not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VoteCounts is the refreshed counter pair returned after a vote mutation.
type VoteCounts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}
