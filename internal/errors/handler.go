package errors

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"redpaper/internal/ui"
)

// ErrorHandler reports terminal errors to the user and to the structured log.
type ErrorHandler struct {
	logger  *slog.Logger
	console *ui.Console
}

// NewErrorHandler builds a handler that logs through whatever slog.Default() is at
// the time of each Handle call, so it follows the logging set up by the command.
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{console: ui.NewConsole()}
}

// NewErrorHandlerWithWriter builds a handler that logs JSON records to w.
func NewErrorHandlerWithWriter(w io.Writer, console *ui.Console) *ErrorHandler {
	return &ErrorHandler{
		logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})),
		console: console,
	}
}

func (h *ErrorHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	var redpaperErr *RedpaperError
	if errors.As(err, &redpaperErr) {
		h.logStructuredError(redpaperErr)
		h.console.PrintError(h.console.FormatErrorMessage(redpaperErr.Context, redpaperErr.Cause, redpaperErr.Suggestion))
		return
	}

	h.log().Error("Unhandled error occurred", "error", err.Error(), "type", "generic")
	h.console.PrintError(err.Error())
}

func (h *ErrorHandler) logStructuredError(err *RedpaperError) {
	attrs := []slog.Attr{
		slog.String("error", err.OriginalErr.Error()),
		slog.String("type", errorTypeName(err.Type)),
		slog.String("context", err.Context),
	}
	if err.Cause != "" {
		attrs = append(attrs, slog.String("cause", err.Cause))
	}
	if err.Suggestion != "" {
		attrs = append(attrs, slog.String("suggestion", err.Suggestion))
	}
	if err.Type == ErrExternalProcess {
		attrs = append(attrs, slog.Int("exit_code", err.ExitCode))
	}

	h.log().LogAttrs(context.Background(), slog.LevelError, "redpaper error occurred", attrs...)
}

func errorTypeName(errType error) string {
	switch errType {
	case ErrValidation:
		return "validation"
	case ErrNoRuntimeFound:
		return "no_runtime_found"
	case ErrExternalProcess:
		return "external_process"
	case ErrOutputMissing:
		return "output_missing"
	case ErrConfigInvalid:
		return "config_invalid"
	case ErrRuntimeFailed:
		return "runtime_failed"
	case ErrFileSystemFailed:
		return "filesystem_failed"
	case ErrTemplateFetchFailed:
		return "template_fetch_failed"
	default:
		return "unknown"
	}
}
