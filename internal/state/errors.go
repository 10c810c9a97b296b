package state

import "errors"

var (
	// ErrNotConfigured is returned by remote operations when no credentials
	// are set. No network I/O is attempted.
	ErrNotConfigured = errors.New("GitHub service not initialized")
	// ErrBusy is returned when an operation on the same kind is in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrInvalidRawContent is returned when the raw buffer cannot be adopted.
	ErrInvalidRawContent = errors.New("invalid raw content")
	// ErrIndexOutOfRange is returned by structural edits with a bad index.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidRecord is returned when a record is not valid JSON.
	ErrInvalidRecord = errors.New("record is not valid JSON")
	// ErrUnsavedRawEdits is returned when switching kinds under SwitchBlock
	// with an edited raw buffer.
	ErrUnsavedRawEdits = errors.New("raw buffer has unsaved edits")
	// ErrNoActiveKind is returned by raw-mode operations with no active kind.
	ErrNoActiveKind = errors.New("no active collection")
)
