// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents a registered account. A user can only log in after
// the OTP verification flow has set IsVerified.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Avatar   string `gorm:"not null" json:"avatar"`
	IsAdmin  bool   `gorm:"default:false" json:"is_admin"`

	// OTP state is transient: present between registration and verification,
	// cleared once the email is confirmed.
	IsVerified   bool       `gorm:"default:false" json:"is_verified"`
	OTPHash      string     `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicUser is the author projection embedded in comment responses.
type PublicUser struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// Public returns the user's public author fields.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}
