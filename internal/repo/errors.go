package repo

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes repository errors. Store-level transport failures are
// never assigned a code; they propagate wrapped and unclassified.
type ErrorCode string

const (
	// CodeInvalidArgument indicates a required identifier was missing or empty.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeNotFound indicates a named schematic, hashed schematic or machine id
	// has no stored record.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeConflict indicates an optimistic-concurrency precondition failed
	// during a mutation attempt. No data was changed; callers should re-read
	// current status and retry.
	CodeConflict ErrorCode = "CONFLICT"
)

// Error is a categorized repository error.
//
// Key carries the affected identifier (schematic name, content hash or
// machine id) when known.
type Error struct {
	Code    ErrorCode
	Message string
	Key     string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%s)", e.Code, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a NotFound repository error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == CodeNotFound
}

// IsConflict reports whether err is a Conflict repository error.
func IsConflict(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == CodeConflict
}

// IsInvalidArgument reports whether err is an InvalidArgument repository error.
func IsInvalidArgument(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == CodeInvalidArgument
}

func invalidArgument(message string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: message}
}

func notFound(key, message string) *Error {
	return &Error{Code: CodeNotFound, Message: message, Key: key}
}

func conflict(key, message string) *Error {
	return &Error{Code: CodeConflict, Message: message, Key: key}
}
