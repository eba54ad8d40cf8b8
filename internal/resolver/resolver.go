package resolver

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	rperrors "redpaper/internal/errors"
	"redpaper/pkg/compile"
)

// Resolve returns a copy of req with absolute, symlink-free input, output and repository paths.
// It fails when the input file or the repository is missing, and creates the
// output file's parent directory when it does not exist yet.
func Resolve(req compile.Request) (compile.Request, error) {
	var err error

	if req.InputPath, err = absolute(req.InputPath, "input file"); err != nil {
		return req, err
	}
	if req.OutputPath, err = absolute(req.OutputPath, "output file"); err != nil {
		return req, err
	}
	if req.RepositoryPath, err = absolute(req.RepositoryPath, "redpaper path"); err != nil {
		return req, err
	}

	if _, err := os.Stat(req.InputPath); err != nil {
		return req, rperrors.NewValidationError(
			fmt.Sprintf("input file %s does not exist", req.InputPath),
			err.Error(),
			"Check the --input path",
			fmt.Errorf("input file %s does not exist: %w", req.InputPath, err),
		)
	}

	if _, err := os.Stat(req.RepositoryPath); err != nil {
		return req, rperrors.NewValidationError(
			fmt.Sprintf("redpaper path %s does not exist", req.RepositoryPath),
			err.Error(),
			"Point --redpaper-path at a redpaper checkout, or run 'redpaper templates fetch'",
			fmt.Errorf("redpaper path %s does not exist: %w", req.RepositoryPath, err),
		)
	}

	// The input's directory is what gets mounted, so it must be the real one:
	// a symlinked input would otherwise dangle inside the container.
	if req.InputPath, err = realPath(req.InputPath, "input file"); err != nil {
		return req, err
	}
	if req.RepositoryPath, err = realPath(req.RepositoryPath, "redpaper path"); err != nil {
		return req, err
	}

	outputDir := filepath.Dir(req.OutputPath)
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return req, rperrors.NewFileSystemError(
			fmt.Sprintf("cannot create output directory %s", outputDir),
			err.Error(),
			"Check permissions on the --output location",
			fmt.Errorf("failed to create output directory: %w", err),
		)
	}
	if outputDir, err = realPath(outputDir, "output directory"); err != nil {
		return req, err
	}
	req.OutputPath = filepath.Join(outputDir, filepath.Base(req.OutputPath))

	slog.Debug("Resolved paths", "input", req.InputPath, "output", req.OutputPath, "redpaperPath", req.RepositoryPath)
	return req, nil
}

func absolute(path, what string) (string, error) {
	if path == "" {
		return "", rperrors.NewValidationError(
			fmt.Sprintf("%s path is empty", what),
			"", "",
			fmt.Errorf("%s path is empty", what),
		)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", rperrors.NewValidationError(
			fmt.Sprintf("cannot resolve %s path %s", what, path),
			err.Error(), "",
			fmt.Errorf("failed to get absolute path for %s: %w", what, err),
		)
	}
	return abs, nil
}

func realPath(path, what string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", rperrors.NewValidationError(
			fmt.Sprintf("cannot resolve %s %s", what, path),
			err.Error(), "",
			fmt.Errorf("failed to resolve symlinks for %s: %w", what, err),
		)
	}
	return resolved, nil
}
