package emoai

import (
	"errors"
	"fmt"
)

// CredentialError is an expected authentication rejection (bad input,
// duplicate account, wrong password, unverified account, rate limiting).
// The message is suitable for direct user display.
type CredentialError struct {
	Message string
}

func (e *CredentialError) Error() string {
	return e.Message
}

// ErrNotAuthenticated is returned when a protected operation is attempted
// without a session. The presentation layer should check session state first,
// but the core defends against it regardless.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrEmptyContent rejects a journal entry with no content. Title and mood
// are optional; content is not.
var ErrEmptyContent = errors.New("journal content is required")

// PersistenceError is a backend failure (unreachable, authorization denied at
// the data layer, malformed response). Recoverable by retry at the caller's
// discretion; the core does not auto-retry.
type PersistenceError struct {
	Op      string
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// statusError carries a non-2xx backend response until the calling operation
// maps it into the error taxonomy.
type statusError struct {
	StatusCode int
	Message    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}
