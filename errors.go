package ryderserial

import (
	"errors"
	"fmt"
)

// Code identifies the kind of failure a command or transport event
// represents. It does not carry message text so callers can switch on it
// with errors.As without string matching.
type Code string

// Device-reported errors: wire bytes 246-255.
const (
	CodeUnknownCommand   Code = "unknown_command"
	CodeNotInitialized   Code = "not_initialized"
	CodeMemoryError      Code = "memory_error"
	CodeAppDomainTooLong Code = "app_domain_too_long"
	CodeAppDomainInvalid Code = "app_domain_invalid"
	CodeMnemonicTooLong  Code = "mnemonic_too_long"
	CodeMnemonicInvalid  Code = "mnemonic_invalid"
	CodeGenerateMnemonic Code = "generate_mnemonic"
	CodeInputTimeout     Code = "input_timeout"
	CodeNotImplemented   Code = "not_implemented"
	CodeUnknownResponse  Code = "unknown_response"
)

// Driver-reported errors.
const (
	CodeDisconnected     Code = "disconnected"
	CodeWatchdog         Code = "watchdog"
	CodeCleared          Code = "cleared"
	CodeLocked           Code = "locked"
	CodeSequenceNotAsync Code = "sequence_not_async"
)

// deviceErrorCodes maps the wire byte range 246-255 to a Code.
var deviceErrorCodes = map[byte]Code{
	246: CodeUnknownCommand,
	247: CodeNotInitialized,
	248: CodeMemoryError,
	249: CodeAppDomainTooLong,
	250: CodeAppDomainInvalid,
	251: CodeMnemonicTooLong,
	252: CodeMnemonicInvalid,
	253: CodeGenerateMnemonic,
	254: CodeInputTimeout,
	255: CodeNotImplemented,
}

// deviceErrorCode resolves a wire error byte to its Code, falling back to
// CodeUnknownResponse for any byte in the error range with no assigned
// meaning.
func deviceErrorCode(b byte) Code {
	if code, ok := deviceErrorCodes[b]; ok {
		return code
	}
	return CodeUnknownResponse
}

// Error is the structured error type returned by driver operations,
// carrying the failing operation, a taxonomy Code, and an optional wrapped
// cause.
type Error struct {
	Op    string
	Code  Code
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("ryderserial: %s (op=%s)", msg, e.Op)
	}
	return fmt.Sprintf("ryderserial: %s", msg)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is reports whether target shares this error's Code, supporting
// errors.Is(err, &Error{Code: CodeWatchdog}) style comparisons.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewError creates a structured error for the given operation and code.
func NewError(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// WrapError wraps an existing error under a driver error code.
func WrapError(op string, code Code, inner error) *Error {
	if inner == nil {
		return nil
	}
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is a *Error with the given Code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
