package errors

import (
	"bufio"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime   Category = "runtime"
	CategoryScheduler Category = "scheduler"
	CategoryInject    Category = "inject"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// Location represents a source code location.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ReflowError is a structured error with suggestions and documentation.
type ReflowError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (runtime, scheduler, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the source location where the error occurred, when one
	// exists (config files, mostly).
	Location *Location

	// Context contains surrounding source lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is code showing the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ReflowError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ReflowError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds source location to the error.
func (e *ReflowError) WithLocation(file string, line, column int) *ReflowError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ReflowError) WithSuggestion(s string) *ReflowError {
	e.Suggestion = s
	return e
}

// WithExample adds a code example to the error.
func (e *ReflowError) WithExample(ex string) *ReflowError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *ReflowError) WithDetail(d string) *ReflowError {
	e.Detail = d
	return e
}

// WithContext adds custom context lines to the error.
func (e *ReflowError) WithContext(lines []string) *ReflowError {
	e.Context = lines
	return e
}

// Wrap wraps another error.
func (e *ReflowError) Wrap(err error) *ReflowError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a ReflowError from a registered error code.
func New(code string) *ReflowError {
	template, ok := registry[code]
	if !ok {
		return &ReflowError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ReflowError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new ReflowError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ReflowError {
	return &ReflowError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a ReflowError.
func FromError(err error, code string) *ReflowError {
	if err == nil {
		return nil
	}
	if re, ok := err.(*ReflowError); ok {
		return re
	}
	return New(code).Wrap(err)
}
