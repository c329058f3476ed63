// Package validation проверки пользовательского ввода, общие для клиента и сервера.
package validation

import (
	"fmt"
	"regexp"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 32
	MinPasswordLen = 12
)

var usernameChars = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateUsername: латиница, цифры и '_', от MinUsernameLen до MaxUsernameLen символов
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return fmt.Errorf("username cannot be empty")
	case len(username) < MinUsernameLen:
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	case len(username) > MaxUsernameLen:
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	case !usernameChars.MatchString(username):
		return fmt.Errorf("username can only contain letters, digits and underscores")
	}
	return nil
}

// ValidatePassword проверяет только длину, остальное на совести пользователя
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}
	return nil
}
