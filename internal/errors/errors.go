package errors

import (
	"sync"
)

var (
	defaultHandler *ErrorHandler
	once           sync.Once
)

func GetDefaultHandler() *ErrorHandler {
	once.Do(func() {
		defaultHandler = NewErrorHandler()
	})
	return defaultHandler
}

// HandleError reports err through the default handler and returns the exit code the process should use.
// The structured record goes to slog.Default(); no log file is opened here.
func HandleError(err error) int {
	GetDefaultHandler().Handle(err)
	return ExitCodeFor(err)
}

// resetDefaultHandler resets the singleton for testing purposes
func resetDefaultHandler() {
	defaultHandler = nil
	once = sync.Once{}
}
