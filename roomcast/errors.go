package roomcast

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	// Protocol errors (from server error responses)
	ErrorUnknown ErrorCode = iota
	ErrorSessionNotFound
	ErrorRoomNotFound
	ErrorRoomFull
	ErrorNotHost
	ErrorInvalidMessage
	ErrorInternalServer

	// Client-side errors
	ErrorConnection
	ErrorDisconnected
	ErrorTimeout
	ErrorNotConnected
	ErrorNotInRoom
	ErrorNotGuest
	ErrorSerialization
	ErrorResolve
	ErrorReconnectExhausted
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorSessionNotFound:
		return "session_not_found"
	case ErrorRoomNotFound:
		return "room_not_found"
	case ErrorRoomFull:
		return "room_full"
	case ErrorNotHost:
		return "not_host"
	case ErrorInvalidMessage:
		return "invalid_message"
	case ErrorInternalServer:
		return "internal_error"
	case ErrorConnection:
		return "connection_error"
	case ErrorDisconnected:
		return "disconnected"
	case ErrorTimeout:
		return "timeout"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorNotInRoom:
		return "not_in_room"
	case ErrorNotGuest:
		return "not_guest"
	case ErrorSerialization:
		return "serialization_error"
	case ErrorResolve:
		return "resolve_error"
	case ErrorReconnectExhausted:
		return "reconnect_exhausted"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// ParseErrorCode converts a server error code string to ErrorCode.
func ParseErrorCode(code string) ErrorCode {
	switch code {
	case "session_not_found":
		return ErrorSessionNotFound
	case "room_not_found":
		return ErrorRoomNotFound
	case "room_full":
		return ErrorRoomFull
	case "not_host":
		return ErrorNotHost
	case "invalid_message":
		return ErrorInvalidMessage
	case "internal_error":
		return ErrorInternalServer
	default:
		return ErrorUnknown
	}
}

// RoomcastError is a structured error with code and context.
type RoomcastError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *RoomcastError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (wrapped: %v)", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *RoomcastError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface for error comparison.
func (e *RoomcastError) Is(target error) bool {
	t, ok := target.(*RoomcastError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new RoomcastError with the given code and message.
func NewError(code ErrorCode, message string) *RoomcastError {
	return &RoomcastError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with a RoomcastError.
func WrapError(code ErrorCode, message string, err error) *RoomcastError {
	return &RoomcastError{
		Code:    code,
		Message: message,
		Wrapped: err,
	}
}

// IsProtocolError checks if an error originated from a server error
// response.
func IsProtocolError(err error) bool {
	if err == nil {
		return false
	}
	var re *RoomcastError
	if !errors.As(err, &re) {
		return false
	}
	return re.Code >= ErrorSessionNotFound && re.Code <= ErrorInternalServer
}

// IsConnectionError checks if an error is a connection-related error.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var re *RoomcastError
	if !errors.As(err, &re) {
		return false
	}
	switch re.Code {
	case ErrorConnection, ErrorDisconnected, ErrorTimeout, ErrorReconnectExhausted:
		return true
	default:
		return false
	}
}
