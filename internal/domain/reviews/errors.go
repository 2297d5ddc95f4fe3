package reviews

import "errors"

// ErrNotFound indicates no stored report matches the requested ID.
var ErrNotFound = errors.New("review report not found")

// InvalidInputError rejects an upload before any model call happens.
// The message is returned verbatim to the client.
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string { return e.Msg }

// NewInvalidInput wraps a client-facing validation message.
func NewInvalidInput(msg string) error {
	return &InvalidInputError{Msg: msg}
}
