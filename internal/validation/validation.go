// Package validation provides input validation for the API layer.
package validation

import (
	"fmt"
	"regexp"

	"inkwell/internal/models"
)

const (
	MaxUsernameLen = 50
	MaxEmailLen    = 100
	MaxTitleLen    = 255
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateUsername checks username length constraints.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}
	return nil
}

// ValidateEmail checks email length and basic format.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > MaxEmailLen {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLen)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword checks that a password is present.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// Signup validates all signup fields and collects per-field failures.
func Signup(username, email, password string) []models.FieldError {
	var errs []models.FieldError
	if err := ValidateUsername(username); err != nil {
		errs = append(errs, models.FieldError{Field: "username", Message: err.Error()})
	}
	if err := ValidateEmail(email); err != nil {
		errs = append(errs, models.FieldError{Field: "email", Message: err.Error()})
	}
	if err := ValidatePassword(password); err != nil {
		errs = append(errs, models.FieldError{Field: "password", Message: err.Error()})
	}
	return errs
}

// PostInput validates post title and content, collecting per-field failures.
func PostInput(title, content string) []models.FieldError {
	var errs []models.FieldError
	if title == "" {
		errs = append(errs, models.FieldError{Field: "title", Message: "title is required"})
	} else if len(title) > MaxTitleLen {
		errs = append(errs, models.FieldError{Field: "title", Message: fmt.Sprintf("title must not exceed %d characters", MaxTitleLen)})
	}
	if content == "" {
		errs = append(errs, models.FieldError{Field: "content", Message: "content is required"})
	}
	return errs
}
