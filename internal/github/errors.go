package github

import (
	"errors"
	"fmt"
)

// Common GitHub API errors.
var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when authentication fails.
	ErrUnauthorized = errors.New("unauthorized, check your GitHub token")
	// ErrForbidden is returned when authorization fails.
	ErrForbidden = errors.New("forbidden, token may lack the 'repo' or 'contents' scope")
	// ErrConflict is returned when a resource already exists.
	ErrConflict = errors.New("conflict, resource already exists")
)

// StatusError is a non-2xx API response.
type StatusError struct {
	Code   int
	Reason string
	Body   string

	kind error
}

func (e *StatusError) Error() string {
	switch {
	case e.kind != nil:
		return fmt.Sprintf("status %d: %v", e.Code, e.kind)
	case e.Body != "":
		return fmt.Sprintf("status %d %s: %s", e.Code, e.Reason, e.Body)
	default:
		return fmt.Sprintf("status %d %s", e.Code, e.Reason)
	}
}

// Unwrap exposes the matching sentinel, if any, to errors.Is.
func (e *StatusError) Unwrap() error { return e.kind }
