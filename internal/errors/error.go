package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRouting Category = "routing"
	CategoryRuntime Category = "runtime"
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
	CategoryExport  Category = "export"
)

// Location is a position in a configuration or source file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as file:line[:column].
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Line == 0 {
		return l.File
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// BloomError is a structured error with a code, an explanation and a hint.
type BloomError struct {
	// Code is a unique error identifier (e.g., "E102").
	Code string

	// Category is the error type (routing, runtime, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location points at the offending file, if any.
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *BloomError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *BloomError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a BloomError with the same code.
func (e *BloomError) Is(target error) bool {
	t, ok := target.(*BloomError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithLocation records the file position the error refers to.
func (e *BloomError) WithLocation(file string, line, column int) *BloomError {
	e.Location = &Location{File: file, Line: line, Column: column}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *BloomError) WithSuggestion(s string) *BloomError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registered explanation.
func (e *BloomError) WithDetail(d string) *BloomError {
	e.Detail = d
	return e
}

// WithDetailf is WithDetail with formatting.
func (e *BloomError) WithDetailf(format string, args ...any) *BloomError {
	return e.WithDetail(fmt.Sprintf(format, args...))
}

// Wrap wraps another error.
func (e *BloomError) Wrap(err error) *BloomError {
	e.Wrapped = err
	return e
}

// New creates a BloomError from a registered error code.
func New(code string) *BloomError {
	template, ok := GetTemplate(code)
	if !ok {
		return &BloomError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &BloomError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new BloomError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *BloomError {
	return &BloomError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in a BloomError with the given code. An err that is
// already a BloomError is returned as is.
func FromError(err error, code string) *BloomError {
	if err == nil {
		return nil
	}
	if be, ok := err.(*BloomError); ok {
		return be
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first BloomError in err's chain.
func CodeOf(err error) string {
	for err != nil {
		if be, ok := err.(*BloomError); ok && be.Code != "" {
			return be.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
