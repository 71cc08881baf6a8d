// Package scanerr defines the typed errors returned by netscan. Each error
// carries a Code, and every Code belongs to one Kind which decides how the
// command line reports it and which exit status the process uses.
package scanerr

import (
	"errors"
	"fmt"
)

// Code identifies a specific failure.
type Code string

const (
	// Configuration errors.
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeInvalidPoolSize     Code = "INVALID_POOL_SIZE"
	CodeUnsupportedPlatform Code = "UNSUPPORTED_PLATFORM"
	CodeRangeTooLarge       Code = "RANGE_TOO_LARGE"

	// Resolution errors.
	CodeInvalidAddress     Code = "INVALID_ADDRESS"
	CodeInvalidPrefix      Code = "INVALID_PREFIX"
	CodeInvalidMask        Code = "INVALID_MASK"
	CodeUnresolvableTarget Code = "UNRESOLVABLE_TARGET"
	CodeNotSupported       Code = "NOT_SUPPORTED"
	CodeInterfaceQuery     Code = "INTERFACE_QUERY"

	// Probe errors.
	CodeProbeFailed Code = "PROBE_FAILED"
)

// Kind groups codes by how they are handled.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindResolution
	KindProbe
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindResolution:
		return "resolution"
	case KindProbe:
		return "probe"
	}
	return "unknown"
}

// Kind returns the group the code belongs to.
func (c Code) Kind() Kind {
	switch c {
	case CodeInvalidArgument, CodeInvalidPoolSize, CodeUnsupportedPlatform, CodeRangeTooLarge:
		return KindConfiguration
	case CodeInvalidAddress, CodeInvalidPrefix, CodeInvalidMask, CodeUnresolvableTarget,
		CodeNotSupported, CodeInterfaceQuery:
		return KindResolution
	case CodeProbeFailed:
		return KindProbe
	}
	return KindUnknown
}

// Error is the error type used across netscan.
type Error struct {
	Code    Code
	Message string
	Target  string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Target != "" {
		msg = fmt.Sprintf("%s (target: %s)", msg, e.Target)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, scanerr.New(scanerr.CodeInvalidMask, "")) matches by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Kind returns the kind of the error's code.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// New creates an error with the given code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewWithTarget creates an error about a specific target.
func NewWithTarget(code Code, message, target string) *Error {
	return &Error{Code: code, Message: message, Target: target}
}

// Wrap wraps err with a code and message.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Cause: err}
}

// WrapWithTarget wraps err with a code, message and target.
func WrapWithTarget(code Code, message, target string, err error) *Error {
	return &Error{Code: code, Message: message, Target: target, Cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err's chain contains an *Error with the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// KindOf returns the kind of err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}

// ExitCode maps an error to a process exit status. nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindConfiguration:
		return 2
	case KindResolution:
		return 3
	}
	return 1
}
