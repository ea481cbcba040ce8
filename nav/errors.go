package nav

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is returned when generation input or a guide route cannot be used
type ErrInvalidRequest struct {
	Field  string
	Reason string
}

func (e *ErrInvalidRequest) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// ErrNoResults is returned when no geocoding results are found
type ErrNoResults struct {
	Query string
}

func (e *ErrNoResults) Error() string {
	return fmt.Sprintf("no results found for query: %s", e.Query)
}

var (
	// ErrSessionNotFound is returned for an unknown navigation session id
	ErrSessionNotFound = errors.New("navigation session not found")
	// ErrSessionClosed is returned when a fix is sent to a stopped session
	ErrSessionClosed = errors.New("navigation session closed")
)

func invalid(field, reason string) error {
	return &ErrInvalidRequest{Field: field, Reason: reason}
}
