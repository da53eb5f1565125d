// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// usernamePattern keeps names usable as a URL path segment without escaping.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const (
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 5
	// MaxPasswordLength is the longest accepted password, in characters.
	MaxPasswordLength = 7
	// MaxUsernameLength caps display names.
	MaxUsernameLength = 30
)

// ValidatePassword checks the password shape: 5, 6 or 7 characters.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return fmt.Errorf("password must be between %d and %d characters long", MinPasswordLength, MaxPasswordLength)
	}
	return nil
}

// ValidateUsername checks that a display name is usable.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLength)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}
	return nil
}

// ValidateDiscount checks that a discount percentage lies in [0, 100].
func ValidateDiscount(percent float64) error {
	if percent < 0 || percent > 100 || percent != percent {
		return fmt.Errorf("discount must be between 0 and 100 percent")
	}
	return nil
}
