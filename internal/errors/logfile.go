package errors

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// LogFileName is the name of the structured log file inside the log directory.
	LogFileName = "redpaper.log"

	// LogDirEnv overrides the OS-standard log directory.
	LogDirEnv = "REDPAPER_LOG_DIR"

	maxLogSizeBytes = 10 * 1024 * 1024
	maxLogFiles     = 5
)

// logDir returns the OS-standard log directory, honoring LogDirEnv.
func logDir() (string, error) {
	if dir := os.Getenv(LogDirEnv); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Logs", "Redpaper"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Redpaper", "logs"), nil
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "Redpaper", "logs"), nil
	default:
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, "redpaper", "logs"), nil
		}
		return filepath.Join(homeDir, ".local", "share", "redpaper", "logs"), nil
	}
}

// ensureLogDir creates the log directory, falling back to the working directory
// when the standard location cannot be written. The bool reports whether the fallback was used.
func ensureLogDir() (string, bool, error) {
	dir, err := logDir()
	if err == nil {
		if err = os.MkdirAll(dir, 0750); err == nil {
			if err = probeWritable(dir); err == nil {
				return dir, false, nil
			}
		}
	}

	cwd, cwdErr := os.Getwd()
	if cwdErr != nil {
		return "", true, fmt.Errorf("cannot determine current directory for fallback logging: %w", cwdErr)
	}

	fmt.Fprintf(os.Stderr, "Warning: cannot use log directory %q (%v). Logging to %s instead.\n", dir, err, cwd)
	return cwd, true, nil
}

func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		slog.Warn("Failed to close write probe", "path", name, "error", err)
	}
	return os.Remove(name)
}

// rotateLogFile shifts redpaper.log -> .1 -> .2 ... keeping at most maxLogFiles generations.
func rotateLogFile(logPath string) error {
	oldest := fmt.Sprintf("%s.%d", logPath, maxLogFiles)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove old log file", "path", oldest, "error", err)
	}

	for i := maxLogFiles - 1; i > 0; i-- {
		from := fmt.Sprintf("%s.%d", logPath, i)
		to := fmt.Sprintf("%s.%d", logPath, i+1)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, to); err != nil {
			slog.Warn("Failed to rotate log file", "old", from, "new", to, "error", err)
		}
	}

	if _, err := os.Stat(logPath); err != nil {
		return nil
	}
	return os.Rename(logPath, logPath+".1")
}

func rotateIfNeeded(logPath string) error {
	info, err := os.Stat(logPath)
	if err != nil || info.Size() < maxLogSizeBytes {
		return nil
	}
	return rotateLogFile(logPath)
}

// OpenLogFile opens the structured log file for appending, rotating it first when it has grown too large.
func OpenLogFile() (*os.File, error) {
	dir, _, err := ensureLogDir()
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(dir, LogFileName)
	if err := rotateIfNeeded(logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to rotate log file: %v\n", err)
	}

	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}
