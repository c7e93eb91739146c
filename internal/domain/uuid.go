package domain

import "github.com/google/uuid"

// NewUUID returns a random (v4) UUID string for session and message IDs.
func NewUUID() string {
	return uuid.New().String()
}
