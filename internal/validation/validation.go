package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// deckNameRegex allows letters (any script), digits, spaces and a few separators
var deckNameRegex = regexp.MustCompile(`^[\p{L}\p{N} _\-.()]+$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateDeckName checks that a deck name is safe to resolve inside the deck folder
func ValidateDeckName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError{Field: "deck", Message: "deck name is required"}
	}
	if len(name) > 200 {
		return ValidationError{Field: "deck", Message: "deck name is too long"}
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return ValidationError{Field: "deck", Message: "deck name must not contain path elements"}
	}
	if !deckNameRegex.MatchString(name) {
		return ValidationError{Field: "deck", Message: "deck name contains invalid characters"}
	}
	return nil
}

// ValidateSessionID checks that a study session ID is a UUID
func ValidateSessionID(id string) error {
	if id == "" {
		return ValidationError{Field: "session", Message: "session ID is required"}
	}
	if _, err := uuid.Parse(id); err != nil {
		return ValidationError{Field: "session", Message: "invalid session ID"}
	}
	return nil
}
