package errors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNoRuntimeFound      = errors.New("no container runtime found")
	ErrExternalProcess     = errors.New("container process failed")
	ErrOutputMissing       = errors.New("output file was not created")
	ErrConfigInvalid       = errors.New("configuration invalid")
	ErrRuntimeFailed       = errors.New("runtime operation failed")
	ErrFileSystemFailed    = errors.New("filesystem operation failed")
	ErrTemplateFetchFailed = errors.New("template repository fetch failed")
)

type RedpaperError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error

	// ExitCode is the child's exit status for ErrExternalProcess, zero otherwise.
	ExitCode int
}

func (e *RedpaperError) Error() string {
	return e.OriginalErr.Error()
}

func (e *RedpaperError) Unwrap() []error {
	return []error{e.OriginalErr, e.Type}
}

func NewRedpaperError(errorType error, context, cause, suggestion string, originalErr error) *RedpaperError {
	if originalErr == nil {
		originalErr = errorType
	}
	return &RedpaperError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewValidationError(context, cause, suggestion string, originalErr error) *RedpaperError {
	return NewRedpaperError(ErrValidation, context, cause, suggestion, originalErr)
}

func NewNoRuntimeError(context, cause, suggestion string, originalErr error) *RedpaperError {
	return NewRedpaperError(ErrNoRuntimeFound, context, cause, suggestion, originalErr)
}

func NewOutputMissingError(context, cause, suggestion string, originalErr error) *RedpaperError {
	return NewRedpaperError(ErrOutputMissing, context, cause, suggestion, originalErr)
}

func NewConfigError(context, cause, suggestion string, originalErr error) *RedpaperError {
	return NewRedpaperError(ErrConfigInvalid, context, cause, suggestion, originalErr)
}

func NewRuntimeError(context, cause, suggestion string, originalErr error) *RedpaperError {
	return NewRedpaperError(ErrRuntimeFailed, context, cause, suggestion, originalErr)
}

func NewFileSystemError(context, cause, suggestion string, originalErr error) *RedpaperError {
	return NewRedpaperError(ErrFileSystemFailed, context, cause, suggestion, originalErr)
}

func NewTemplateFetchError(context, cause, suggestion string, originalErr error) *RedpaperError {
	return NewRedpaperError(ErrTemplateFetchFailed, context, cause, suggestion, originalErr)
}

// NewExternalProcessError records a nonzero exit of the container process.
func NewExternalProcessError(exitCode int, stderrTail string) *RedpaperError {
	context := fmt.Sprintf("container exited with status %d", exitCode)
	if exitCode > signalExitBase && exitCode < signalExitBase+65 {
		context += fmt.Sprintf(" (terminated by signal %d)", exitCode-signalExitBase)
	}
	err := NewRedpaperError(
		ErrExternalProcess,
		context,
		stderrTail,
		"Check the converter output above; arguments passed with --pandoc-arg or --extra are not validated",
		fmt.Errorf("container exited with status %d", exitCode),
	)
	err.ExitCode = exitCode
	return err
}
