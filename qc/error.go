package qc

import "fmt"

// Error code constants for categorizing errors.
const (
	ErrParse    = "PARSE_ERROR"
	ErrInternal = "INTERNAL_ERROR"
	ErrConfig   = "CONFIG_ERROR"

	// ErrValidation is returned by the statement helpers for bad options
	// such as an unknown sort field or a negative skip.
	ErrValidation = "VALIDATION_ERROR"

	// Accessor and mutation error codes.
	ErrNotFound  = "NOT_FOUND"  // attribute missing or has no usable value
	ErrWrongType = "WRONG_TYPE" // attribute value has a different shape
	ErrFrozen    = "FROZEN"     // mutation of a frozen node
)

// ParseError represents a syntax error found while parsing QC text.
type ParseError struct {
	Message  string `json:"message"`
	Pos      Pos    `json:"pos"`
	Got      string `json:"got,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	if e.Got != "" && e.Expected != "" {
		return fmt.Sprintf("parse error at %d:%d: %s (got %q, expected %s)",
			e.Pos.Line, e.Pos.Column, e.Message, e.Got, e.Expected)
	}
	if e.Got != "" {
		return fmt.Sprintf("parse error at %d:%d: %s (got %q)",
			e.Pos.Line, e.Pos.Column, e.Message, e.Got)
	}
	return fmt.Sprintf("parse error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Error represents a structured error with a code, message, and optional details.
// Accessors and mutators return it; parsing never does.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// InternalError reports a bug in the lexer or parser rather than bad input.
// The lexer panics with it; the parse entry points recover it and return it.
type InternalError struct {
	Message string
	Offset  int
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error at offset %d: %s", e.Offset, e.Message)
}

func errNoValue(attr string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("no value for attribute %s", attr),
		Details: map[string]any{"attr": attr},
	}
}

func errWrongType(attr, want string) *Error {
	return &Error{
		Code:    ErrWrongType,
		Message: fmt.Sprintf("value of attribute %s is not a %s", attr, want),
		Details: map[string]any{"attr": attr, "expected": want},
	}
}

func errFrozen(what string) *Error {
	return &Error{
		Code:    ErrFrozen,
		Message: fmt.Sprintf("cannot modify frozen %s", what),
	}
}
