// Package errors provides structured error handling for relcut.
// Every failure of a release step is a CLIError carrying a category from the
// release error taxonomy and, where possible, actionable remediation steps.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the type of error that occurred.
type ErrorCategory int

const (
	// Argument errors are caused by invalid or missing command arguments.
	Argument ErrorCategory = iota
	// Configuration errors mean no version source could be found or a
	// required configuration value or hook is missing.
	Configuration
	// Version errors mean a version spec did not parse or the resolved
	// version is not strictly greater than the current one.
	Version
	// Build errors mean a build step failed or produced no artifacts.
	Build
	// Network errors are surfaced from the forge API and never retried here.
	Network
	// Runtime errors occur during command execution.
	Runtime
)

// String returns a human-readable name for the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Argument:
		return "Argument Error"
	case Configuration:
		return "Configuration Error"
	case Version:
		return "Version Error"
	case Build:
		return "Build Error"
	case Network:
		return "Network Error"
	case Runtime:
		return "Runtime Error"
	default:
		return "Error"
	}
}

// CLIError is a structured error with category and remediation guidance.
type CLIError struct {
	// Category is the type of error (Configuration, Version, etc.)
	Category ErrorCategory
	// Message is a human-readable description of what went wrong.
	Message string
	// Remediation is a list of actionable steps to resolve the error.
	Remediation []string
	// Usage shows the correct command syntax (optional, for argument errors).
	Usage string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewArgumentError creates a new argument error with the given message and remediation steps.
func NewArgumentError(message string, remediation ...string) *CLIError {
	return &CLIError{
		Category:    Argument,
		Message:     message,
		Remediation: remediation,
	}
}

// NewArgumentErrorWithUsage creates a new argument error that includes correct usage syntax.
func NewArgumentErrorWithUsage(message, usage string, remediation ...string) *CLIError {
	return &CLIError{
		Category:    Argument,
		Message:     message,
		Usage:       usage,
		Remediation: remediation,
	}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, remediation ...string) *CLIError {
	return &CLIError{
		Category:    Configuration,
		Message:     message,
		Remediation: remediation,
	}
}

// NewVersionError creates a new version error.
func NewVersionError(message string, remediation ...string) *CLIError {
	return &CLIError{
		Category:    Version,
		Message:     message,
		Remediation: remediation,
	}
}

// NewBuildError creates a new build error.
func NewBuildError(message string, remediation ...string) *CLIError {
	return &CLIError{
		Category:    Build,
		Message:     message,
		Remediation: remediation,
	}
}

// NewNetworkError wraps a forge failure. The cause stays reachable through errors.Is/As.
func NewNetworkError(err error, message string) *CLIError {
	if err == nil {
		return nil
	}
	return &CLIError{
		Category: Network,
		Message:  fmt.Sprintf("%s: %v", message, err),
		Err:      err,
	}
}

// NewRuntimeError creates a new runtime error.
func NewRuntimeError(message string, remediation ...string) *CLIError {
	return &CLIError{
		Category:    Runtime,
		Message:     message,
		Remediation: remediation,
	}
}

// Wrap wraps an existing error with a CLIError, preserving the original message.
func Wrap(err error, category ErrorCategory, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	return &CLIError{
		Category:    category,
		Message:     err.Error(),
		Remediation: remediation,
		Err:         err,
	}
}

// WrapWithMessage wraps an error with a custom message and category.
func WrapWithMessage(err error, category ErrorCategory, message string, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	return &CLIError{
		Category:    category,
		Message:     fmt.Sprintf("%s: %v", message, err),
		Remediation: remediation,
		Err:         err,
	}
}

// IsCLIError reports whether err, or any error it wraps, is a CLIError.
func IsCLIError(err error) bool {
	return AsCLIError(err) != nil
}

// AsCLIError finds the first CLIError in err's chain.
// Returns nil if there is none.
func AsCLIError(err error) *CLIError {
	var cliErr *CLIError
	if stderrors.As(err, &cliErr) {
		return cliErr
	}
	return nil
}

// Is reports whether err carries a CLIError of the given category.
func Is(err error, category ErrorCategory) bool {
	cliErr := AsCLIError(err)
	return cliErr != nil && cliErr.Category == category
}
