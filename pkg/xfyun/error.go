package xfyun

import (
	"errors"
	"fmt"
)

// Error represents an iFlytek API error
type Error struct {
	// Code is the vendor result code (0 means success)
	Code int `json:"code"`

	// Message is the error message returned by the vendor
	Message string `json:"message"`

	// Sid is the vendor session ID (useful when reporting issues)
	Sid string `json:"sid,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("xfyun: %s (code=%d, sid=%s)", e.Message, e.Code, e.Sid)
}

// AsError tries to convert an error to *Error
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

var (
	// ErrStreamEnded is returned when sending after the last frame
	ErrStreamEnded = errors.New("xfyun: stream already ended")

	// ErrSessionClosed is returned when sending on a closed session
	ErrSessionClosed = errors.New("xfyun: session closed")
)

// wrapError wraps an error with context
func wrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
