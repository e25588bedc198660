package gitrepo

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// requireGit skips the test when no git binary is available.
func requireGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
}

// mustGit runs a git command in dir and fails the test on error.
func mustGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	fullArgs := append([]string{"-C", dir}, args...)
	out, err := exec.Command("git", fullArgs...).CombinedOutput()
	require.NoError(t, err, string(out))
}

// initRepo creates a repository with one initial commit.
func initRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	requireGit(t)

	dir := t.TempDir()
	mustGit(t, dir, "init", "-b", "main")
	mustGit(t, dir, "config", "user.name", "Test User")
	mustGit(t, dir, "config", "user.email", "test@example.com")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("release pipeline\n"), 0o644))
	mustGit(t, dir, "add", "README.md")
	mustGit(t, dir, "commit", "-m", "initial commit")

	return New(dir), dir
}

// TestRepository_StageCommitHead covers the stage/guard/commit/inspect cycle.
func TestRepository_StageCommitHead(t *testing.T) {
	t.Parallel()

	repo, dir := initRepo(t)
	ctx := context.Background()

	// Nothing staged yet.
	staged, err := repo.HasStagedChanges(ctx)
	require.NoError(t, err)
	require.False(t, staged)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte("version = \"2.0.0\"\n"), 0o644))
	require.NoError(t, repo.Add(ctx, "pyproject.toml"))

	staged, err = repo.HasStagedChanges(ctx)
	require.NoError(t, err)
	require.True(t, staged)

	identity := Identity{
		Name:  "release-button",
		Email: "release-button@users.noreply.github.com",
	}
	require.NoError(t, repo.Commit(ctx, "Bump version to 2.0.0", identity))

	message, err := repo.LastCommitMessage(ctx)
	require.NoError(t, err)
	require.Equal(t, "Bump version to 2.0.0", message)

	head, err := repo.Head(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, head)
}

// TestRepository_PushToBareRemote pushes a commit to a local bare remote.
func TestRepository_PushToBareRemote(t *testing.T) {
	t.Parallel()

	repo, dir := initRepo(t)
	ctx := context.Background()

	remote := t.TempDir()
	mustGit(t, remote, "init", "--bare")
	mustGit(t, dir, "remote", "add", "origin", remote)

	require.NoError(t, repo.Push(ctx, "origin", "main"))
}

// TestClassifyPushError maps stderr markers onto the error taxonomy.
func TestClassifyPushError(t *testing.T) {
	t.Parallel()

	err := classifyPushError(errors.New("! [rejected] main -> main (non-fast-forward)"))
	require.ErrorIs(t, err, ErrWriteConflict)

	err = classifyPushError(errors.New("remote: Permission denied to release-bot"))
	require.ErrorIs(t, err, ErrAuthorization)

	err = classifyPushError(errors.New("fatal: Authentication failed for 'https://example.com'"))
	require.ErrorIs(t, err, ErrAuthorization)

	err = classifyPushError(errors.New("fatal: unable to access: could not resolve host"))
	require.NotErrorIs(t, err, ErrWriteConflict)
	require.NotErrorIs(t, err, ErrAuthorization)
}
