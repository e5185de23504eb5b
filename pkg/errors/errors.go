package errors

import (
	"fmt"
)

// ParseError represents a syntax failure in a model, formula, or config file
// with optional position metadata.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

// NewSyntaxError constructs a ParseError located at line:column of an in-memory source.
func NewSyntaxError(path string, line, column int, message string) error {
	return &ParseError{Path: path, Line: line, Column: column, Message: message}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("parse error: %s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures semantic issues in configuration or model declarations.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Check stages reported by CheckError.
const (
	StageModelParse   = "model-parse"
	StageModelBuild   = "model-build"
	StageFormulaParse = "formula-parse"
	StageSolve        = "solve"
	StageSource       = "source"
)

// CheckError represents a failure at one stage of a model-checking run.
// Message is the human readable headline shown to users before the cause.
type CheckError struct {
	Stage   string
	Message string
	Err     error
}

// NewCheckError constructs a CheckError.
func NewCheckError(stage, message string, err error) error {
	return &CheckError{Stage: stage, Message: message, Err: err}
}

func (e *CheckError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s\n%v", e.Message, e.Err)
}

// Unwrap exposes the root error.
func (e *CheckError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
