// Package validation holds input validation rules shared by services.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	otpRegex   = regexp.MustCompile(`^[0-9]{6}$`)
)

// ValidateEmail checks basic email shape.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidateEmailDomain checks that the email's domain is in the allowlist.
// The allowlist entries are expected to be lowercase.
func ValidateEmailDomain(email string, allowed []string) error {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return fmt.Errorf("invalid email address")
	}
	domain := strings.ToLower(email[at+1:])
	for _, d := range allowed {
		if domain == d {
			return nil
		}
	}
	return fmt.Errorf("email domain '%s' is not allowed", domain)
}

// ValidatePassword enforces the minimum password rule.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

// ValidateOTP checks that the code is a 6-digit numeric string.
func ValidateOTP(code string) error {
	if !otpRegex.MatchString(code) {
		return fmt.Errorf("OTP must be a 6-digit code")
	}
	return nil
}

const (
	MinTitleLen   = 5
	MaxTitleLen   = 200
	MinContentLen = 10
	MaxContentLen = 10000
	MaxCommentLen = 5000
)

// ValidatePostTitle enforces the post title length bounds.
func ValidatePostTitle(title string) error {
	if n := len(title); n < MinTitleLen || n > MaxTitleLen {
		return fmt.Errorf("title must be between %d and %d characters", MinTitleLen, MaxTitleLen)
	}
	return nil
}

// ValidatePostContent enforces the post content length bounds.
func ValidatePostContent(content string) error {
	if n := len(content); n < MinContentLen || n > MaxContentLen {
		return fmt.Errorf("content must be between %d and %d characters", MinContentLen, MaxContentLen)
	}
	return nil
}

// ValidateCommentText enforces the comment length bounds.
func ValidateCommentText(text string) error {
	if len(text) == 0 {
		return fmt.Errorf("comment text is required")
	}
	if len(text) > MaxCommentLen {
		return fmt.Errorf("comment cannot exceed %d characters", MaxCommentLen)
	}
	return nil
}
