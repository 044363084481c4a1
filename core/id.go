package core

import "github.com/google/uuid"

// NewID generates a unique identifier used for runs, spans and tool call
// correlation throughout the framework.
func NewID() string { return uuid.NewString() }
