package session

import (
	"errors"
	"fmt"
	"time"
)

// Code names a session failure class. The set is fixed; HTTP status mapping
// and callers branch on it.
type Code string

const (
	CodeConnection     Code = "connection_error"
	CodeConnectTimeout Code = "connect_timeout"
	CodeAuth           Code = "auth_error"
	CodeNoSession      Code = "no_active_session"
	CodeCommandTimeout Code = "command_timeout"
	CodeCanceled       Code = "canceled"
)

// Error is a typed session failure. Op, Command and Elapsed carry enough
// context to tell a dead device from a slow one from a rejected credential.
// Credentials are never placed in any field.
type Error struct {
	Code    Code
	Op      string        // engine operation: dial, send, enable, config
	Command string        // offending command, when one was in flight
	Elapsed time.Duration // time spent before the failure, when bounded by a timer
	Err     error         // underlying cause
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Command != "" {
		msg = fmt.Sprintf("%s (command %q)", msg, e.Command)
	}
	if e.Elapsed > 0 {
		msg = fmt.Sprintf("%s after %s", msg, e.Elapsed.Round(time.Millisecond))
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the failure class from err, or "" when err is not a
// session error.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsTimeout reports whether err is a connect or command deadline failure.
func IsTimeout(err error) bool {
	c := CodeOf(err)
	return c == CodeConnectTimeout || c == CodeCommandTimeout
}

// IsAuth reports whether the device rejected the configured credentials.
func IsAuth(err error) bool {
	return CodeOf(err) == CodeAuth
}

// IsNoSession reports whether the operation ran against a session that is
// not connected and logged in.
func IsNoSession(err error) bool {
	return CodeOf(err) == CodeNoSession
}
