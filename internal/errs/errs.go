package errs

import (
	"fmt"
	"strings"
)

// Location is a 1-based line/column position inside the script source.
type Location struct {
	Line   int
	Column int
}

// SyntaxError reports unparseable input. It is always fatal to the execution
// that produced it.
type SyntaxError struct {
	Message    string
	Line       int
	Column     int
	SourceLine string
}

func NewSyntaxError(message string, line, column int, sourceLine string) *SyntaxError {
	return &SyntaxError{Message: message, Line: line, Column: column, SourceLine: sourceLine}
}

func (e *SyntaxError) Error() string { return e.Message }

// Format renders the error with the offending source line and a caret pointer.
func (e *SyntaxError) Format() string {
	return fmt.Sprintf(
		"SyntaxError: %s\n  at line %d, column %d\n    %s\n    %s",
		e.Message, e.Line, e.Column, e.SourceLine, pointer(e.Column),
	)
}

// RuntimeError reports a failure raised during evaluation: sandbox denials,
// invalid regex patterns, out-of-range page selection, malformed built-in
// arguments, missing index on semantic queries. A zero Line means the call
// site is unknown.
type RuntimeError struct {
	Message    string
	Line       int
	Column     int
	SourceLine string
}

func NewRuntimeError(message string) *RuntimeError {
	return &RuntimeError{Message: message}
}

func Runtimef(format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

func (e *RuntimeError) Error() string { return e.Message }

// At returns a copy of the error annotated with a call-site location, unless
// one is already attached.
func (e *RuntimeError) At(loc Location, sourceLine string) *RuntimeError {
	if e.Line != 0 {
		return e
	}
	return &RuntimeError{Message: e.Message, Line: loc.Line, Column: loc.Column, SourceLine: sourceLine}
}

func (e *RuntimeError) Format() string {
	if e.Line == 0 {
		return "RuntimeError: " + e.Message
	}
	return fmt.Sprintf(
		"RuntimeError: %s\n  at line %d, column %d\n    %s\n    %s",
		e.Message, e.Line, e.Column, e.SourceLine, pointer(e.Column),
	)
}

func pointer(column int) string {
	pad := column - 1
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + "^"
}
