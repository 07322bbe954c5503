// Package models contains data structures for the application's domain models.
package models

import "time"

// Post represents a blog-style post. The author is a free-text label,
// not a reference to a User, and posts are immutable once created.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Author    string    `gorm:"not null" json:"author"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
