package templates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rperrors "redpaper/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestList(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, "templates", "style2", "style2-single.tex"), "%")
	writeFile(t, filepath.Join(repo, "templates", "style2", "style2-double.tex"), "%")
	writeFile(t, filepath.Join(repo, "templates", "plain.TEX"), "%")
	writeFile(t, filepath.Join(repo, "templates", "README.md"), "#")
	writeFile(t, filepath.Join(repo, "templates", ".cache", "junk.tex"), "%")

	ids, err := List(repo)
	require.NoError(t, err)
	assert.Equal(t, []string{"plain.TEX", "style2/style2-double.tex", "style2/style2-single.tex"}, ids)
}

func TestList_NoTemplatesDir(t *testing.T) {
	_, err := List(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, rperrors.ErrValidation))
}

func commitAll(t *testing.T, repo *git.Repository, msg string) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "redpaper", Email: "test@redpaper.invalid", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestFetch_CloneThenUpdate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping git round trip in short mode")
	}

	origin := t.TempDir()
	src, err := git.PlainInit(origin, false)
	require.NoError(t, err)
	writeFile(t, filepath.Join(origin, "templates", "style2", "style2-single.tex"), "% v1")
	commitAll(t, src, "initial")

	dest := filepath.Join(t.TempDir(), "redpaper")
	ctx := context.Background()

	res, err := Fetch(ctx, origin, dest, "")
	require.NoError(t, err)
	assert.True(t, res.Cloned)
	assert.FileExists(t, filepath.Join(dest, "templates", "style2", "style2-single.tex"))

	res, err = Fetch(ctx, origin, dest, "")
	require.NoError(t, err)
	assert.False(t, res.Cloned)
	assert.False(t, res.Updated)

	writeFile(t, filepath.Join(origin, "templates", "style3.tex"), "% v2")
	commitAll(t, src, "add style3")
	head, err := src.Head()
	require.NoError(t, err)

	res, err = Fetch(ctx, origin, dest, "")
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, head.Hash().String(), res.Head)

	ids, err := List(dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"style2/style2-single.tex", "style3.tex"}, ids)
}

func TestFetch_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Fetch(ctx, "https://example.invalid/x.git", "", "")
	assert.True(t, errors.Is(err, rperrors.ErrValidation))

	_, err = Fetch(ctx, "", filepath.Join(t.TempDir(), "fresh"), "")
	assert.True(t, errors.Is(err, rperrors.ErrValidation))

	_, err = Fetch(ctx, filepath.Join(t.TempDir(), "not-a-repo"), filepath.Join(t.TempDir(), "fresh"), "")
	assert.True(t, errors.Is(err, rperrors.ErrTemplateFetchFailed))
}
