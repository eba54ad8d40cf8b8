// Package templates manages the template repository mounted at /data: fetching it
// with git and listing the template identifiers it provides.
package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	rperrors "redpaper/internal/errors"
	"redpaper/pkg/compile"
)

const templateExt = ".tex"

// FetchResult describes the state of the local checkout after Fetch.
type FetchResult struct {
	Dest    string
	Head    string
	Cloned  bool
	Updated bool
}

// Fetch clones url into dest, or fast-forwards dest when it already holds a checkout.
// An empty ref follows the remote HEAD.
func Fetch(ctx context.Context, url, dest, ref string) (*FetchResult, error) {
	if dest == "" {
		return nil, rperrors.NewValidationError("--dest is required", "", "Pass the directory to clone into", errors.New("empty destination"))
	}

	var refName plumbing.ReferenceName
	if ref != "" {
		refName = plumbing.NewBranchReferenceName(ref)
	}

	repo, err := git.PlainOpen(dest)
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists):
		if url == "" {
			return nil, rperrors.NewValidationError("--url is required for a fresh checkout", "", "Pass the git URL of the template repository", errors.New("empty url"))
		}
		slog.Info("Cloning template repository", "url", url, "dest", dest, "ref", ref)
		repo, err = git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
			URL:           url,
			ReferenceName: refName,
			SingleBranch:  ref != "",
		})
		if err != nil {
			return nil, rperrors.NewTemplateFetchError(
				fmt.Sprintf("failed to clone %s", url),
				err.Error(),
				"Check the URL and your network access",
				fmt.Errorf("failed to clone template repository: %w", err),
			)
		}
		return result(repo, dest, true, true)
	case err != nil:
		return nil, rperrors.NewTemplateFetchError(
			fmt.Sprintf("failed to open %s", dest),
			err.Error(),
			"Remove the directory or point --dest elsewhere",
			fmt.Errorf("failed to open template repository: %w", err),
		)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, rperrors.NewTemplateFetchError("failed to get worktree", err.Error(), "", fmt.Errorf("failed to get worktree: %w", err))
	}

	slog.Info("Updating template repository", "dest", dest, "ref", ref)
	err = worktree.PullContext(ctx, &git.PullOptions{
		RemoteName:    git.DefaultRemoteName,
		ReferenceName: refName,
		SingleBranch:  ref != "",
	})
	updated := true
	switch {
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		updated = false
	case err != nil:
		return nil, rperrors.NewTemplateFetchError(
			fmt.Sprintf("failed to update %s", dest),
			err.Error(),
			"Local changes or a diverged branch block fast-forward; re-clone into an empty directory",
			fmt.Errorf("failed to pull template repository: %w", err),
		)
	}

	return result(repo, dest, false, updated)
}

func result(repo *git.Repository, dest string, cloned, updated bool) (*FetchResult, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, rperrors.NewTemplateFetchError("failed to resolve HEAD", err.Error(), "", fmt.Errorf("failed to resolve HEAD: %w", err))
	}
	slog.Info("Template repository ready", "dest", dest, "head", head.Hash().String(), "cloned", cloned, "updated", updated)
	return &FetchResult{Dest: dest, Head: head.Hash().String(), Cloned: cloned, Updated: updated}, nil
}

// List returns the .tex files under <repo>/templates as identifiers relative to
// that directory, with forward slashes, in lexical order.
func List(repo string) ([]string, error) {
	root := filepath.Join(repo, compile.TemplatesDir)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, rperrors.NewValidationError(
			fmt.Sprintf("no templates directory in %s", repo),
			"",
			"Point -r at a redpaper template repository",
			fmt.Errorf("templates directory not found: %s", root),
		)
	}

	var ids []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), templateExt) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		ids = append(ids, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, rperrors.NewFileSystemError("failed to list templates", err.Error(), "", fmt.Errorf("failed to walk %s: %w", root, err))
	}
	return ids, nil
}
