package output

import (
	"encoding/json"
	"errors"
	"io"
)

// ErrorCode represents a machine-readable error classification.
type ErrorCode string

const (
	ErrGeneral    ErrorCode = "GENERAL_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrConflict   ErrorCode = "CONFLICT"
	// ErrStorage covers the database: opening, migrating, reading and
	// writing it.
	ErrStorage ErrorCode = "STORAGE_ERROR"
)

const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitNotFound   = 2
	ExitValidation = 3
	ExitConflict   = 4
	ExitStorage    = 5
)

var exitCodes = map[ErrorCode]int{
	ErrGeneral:    ExitGeneral,
	ErrNotFound:   ExitNotFound,
	ErrValidation: ExitValidation,
	ErrConflict:   ExitConflict,
	ErrStorage:    ExitStorage,
}

// ExitCodeForError maps an ErrorCode to its exit code. Unknown codes exit
// with ExitGeneral.
func ExitCodeForError(code ErrorCode) int {
	if exit, ok := exitCodes[code]; ok {
		return exit
	}
	return ExitGeneral
}

// Error is a command failure with the code reported in the envelope and
// used for the exit status.
type Error struct {
	Err  error
	Code ErrorCode
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Wrap attaches code to err.
func Wrap(err error, code ErrorCode) *Error {
	return &Error{Err: err, Code: code}
}

// CodeOf returns the code attached to err by Wrap anywhere in its chain, or
// ErrGeneral.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrGeneral
}

// Warnings collected while a command ran ride along in either envelope, so
// a save failure is visible even when the command succeeded.
type successEnvelope struct {
	OK       bool     `json:"ok"`
	Data     any      `json:"data"`
	Message  string   `json:"message,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type errorEnvelope struct {
	OK       bool      `json:"ok"`
	Error    string    `json:"error"`
	Code     ErrorCode `json:"code"`
	Warnings []string  `json:"warnings,omitempty"`
}

func encode(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeJSONSuccess(w io.Writer, data any, message string, warnings []string) {
	encode(w, successEnvelope{OK: true, Data: data, Message: message, Warnings: warnings})
}

func writeJSONError(w io.Writer, err error, code ErrorCode, warnings []string) {
	encode(w, errorEnvelope{OK: false, Error: err.Error(), Code: code, Warnings: warnings})
}
