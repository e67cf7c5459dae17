// Package domainerrors provides coded errors shared by services and the HTTP
// layer. Services attach a Code describing the failure class; transport maps
// codes onto status codes without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	CodeNotFound               Code = "not_found"
	CodeInvalidState           Code = "invalid_state"
	CodeValidation             Code = "validation_error"
	CodeConflict               Code = "conflict"
	CodeNoEligibleParticipants Code = "no_eligible_participants"
	CodeInvalidCredential      Code = "invalid_credential"
	CodeBadRequest             Code = "bad_request"
	CodeInternal               Code = "internal_error"
)

// Error is a coded domain error. Description is safe to show to callers for
// every code except CodeInternal.
type Error struct {
	Code        Code
	Description string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error without a cause.
func New(code Code, description string) error {
	return &Error{Code: code, Description: description}
}

// Wrap attaches a code and description to an underlying error.
func Wrap(err error, code Code, description string) error {
	return &Error{Code: code, Description: description, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is supports errors.Is against another coded error by comparing codes.
func (e *Error) Is(target error) bool {
	var de *Error
	if errors.As(target, &de) {
		return e.Code == de.Code
	}
	return false
}
