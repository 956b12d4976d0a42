package socketio

import (
	"encoding/json"
	"fmt"
)

// Names of errors raised by the client itself. Server errors keep the name the
// server sent (e.g. NotFastForwardError).
const (
	TimeoutError                  = "TimeoutError"
	SocketIOError                 = "SocketIOError"
	SocketIOServerDisconnectError = "SocketIOServerDisconnectError"
	UnexpectedRequestError        = "UnexpectedRequestError"
)

// Error is a failed request, either reported by the server or raised by the
// transport.
type Error struct {
	Name    string
	Message string
	Raw     json.RawMessage
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func newError(name, format string, args ...interface{}) *Error {
	return &Error{Name: name, Message: fmt.Sprintf(format, args...)}
}

// serverError decodes the error member of an ack.
func serverError(raw json.RawMessage) *Error {
	var payload struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Name == "" {
		return &Error{Name: UnexpectedRequestError, Message: string(raw), Raw: raw}
	}
	return &Error{Name: payload.Name, Message: payload.Message, Raw: raw}
}
