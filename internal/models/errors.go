package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks malformed user input such as an unrecognised repository URL
var ErrInvalidInput = errors.New("invalid input")

// ErrToolUnavailable is reported by static-analysis integrations that are not installed
var ErrToolUnavailable = errors.New("analysis tool unavailable")

// RemoteAPIError is a non-2xx response from the GitHub API
type RemoteAPIError struct {
	Status  int
	Message string
	Hint    string
}

func (e *RemoteAPIError) Error() string {
	msg := fmt.Sprintf("github api error (status %d): %s", e.Status, e.Message)
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

// PersistenceError is returned when a store operation cannot be recovered locally
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CloneErrorKind distinguishes a stalled clone from any other clone failure
type CloneErrorKind string

const (
	CloneTimeout CloneErrorKind = "clone_timeout"
	CloneFailure CloneErrorKind = "clone_failure"
)

type CloneError struct {
	Kind CloneErrorKind
	URL  string
	Err  error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("%s for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *CloneError) Unwrap() error {
	return e.Err
}
