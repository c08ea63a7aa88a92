package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier string
func GenerateID() string {
	return uuid.New().String()
}

// IsValidID reports whether s has the shape of an identifier produced by GenerateID
func IsValidID(s string) bool {
	return uuid.Validate(s) == nil
}
