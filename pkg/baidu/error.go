package baidu

import (
	"errors"
	"fmt"
)

// Vendor error codes
const (
	// CodeInvalidToken is the recoverable expired/invalid token class.
	// The client recovers it once by forcing a credential refresh.
	CodeInvalidToken = 3302
)

// Error represents a Baidu API error
type Error struct {
	// Code is the vendor error number (err_no)
	Code int `json:"err_no"`

	// Message is the vendor error message (err_msg)
	Message string `json:"err_msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("baidu: %s (err_no=%d)", e.Message, e.Code)
}

// IsInvalidToken reports whether the error is the expired/invalid token
// class
func (e *Error) IsInvalidToken() bool {
	return e.Code == CodeInvalidToken
}

// AsError tries to convert an error to *Error
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// wrapError wraps an error with context
func wrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
