package service

import (
	"context"
	"errors"
	"fmt"

	"go-cosense/internal/socketio"
)

// Names of push failures. The transport ones come from the socket client;
// the rest are reported by the server.
const (
	TimeoutError                  = socketio.TimeoutError
	SocketIOError                 = socketio.SocketIOError
	SocketIOServerDisconnectError = socketio.SocketIOServerDisconnectError
	UnexpectedRequestError        = socketio.UnexpectedRequestError
	NotFastForwardError           = "NotFastForwardError"
	DuplicateTitleError           = "DuplicateTitleError"
	UnexpectedError               = "UnexpectedError"
)

// PushError is a failed commit.
type PushError struct {
	Name    string
	Message string
	Raw     []byte
}

func (e *PushError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// RetryError means every allowed attempt failed with a retryable error.
type RetryError struct {
	Attempts int
	Last     error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryError) Unwrap() error { return e.Last }

// classify turns a commit failure into a PushError. Context errors are
// returned unchanged since the caller asked for them.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pushErr *PushError
	if errors.As(err, &pushErr) {
		return pushErr
	}
	var sioErr *socketio.Error
	if errors.As(err, &sioErr) {
		return &PushError{Name: sioErr.Name, Message: sioErr.Message, Raw: sioErr.Raw}
	}
	return &PushError{Name: UnexpectedError, Message: err.Error()}
}
