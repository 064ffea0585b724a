package utils

import "github.com/google/uuid"

// NewID returns a random (version 4) UUID string used to tell connections
// apart when nicknames collide.
func NewID() string {
	return uuid.NewString()
}
