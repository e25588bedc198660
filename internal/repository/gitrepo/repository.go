package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrWriteConflict is returned when a push is rejected by the remote,
	// e.g. branch protection, a concurrent update or diverged history.
	ErrWriteConflict = errors.New("push rejected by remote")
	// ErrAuthorization is returned when the automation identity lacks push permission.
	ErrAuthorization = errors.New("push not authorized")
)

// Identity is the author/committer identity used for automation commits.
type Identity struct {
	// Name is the committer name.
	Name string
	// Email is the committer email.
	Email string
}

// Repository executes git operations against a local working tree.
type Repository struct {
	// dir is the working tree location.
	dir string
}

// New returns a repository bound to the provided working tree.
func New(dir string) *Repository {
	return &Repository{
		dir: dir,
	}
}

// Add stages the provided paths.
func (r *Repository) Add(ctx context.Context, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("stage files: %w", err)
	}

	return nil
}

// HasStagedChanges reports whether anything is staged for commit.
// Committing with nothing staged is a failure in git, so callers guard on this.
func (r *Repository) HasStagedChanges(ctx context.Context) (bool, error) {
	_, err := r.run(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}

	return false, fmt.Errorf("inspect staged changes: %w", err)
}

// Commit records staged changes with the provided message and identity.
func (r *Repository) Commit(ctx context.Context, message string, identity Identity) error {
	args := []string{
		"-c", "user.name=" + identity.Name,
		"-c", "user.email=" + identity.Email,
		"commit", "-m", message,
	}
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Push sends the branch to the remote and classifies rejections.
func (r *Repository) Push(ctx context.Context, remote, branch string) error {
	if _, err := r.run(ctx, "push", remote, branch); err != nil {
		return classifyPushError(err)
	}

	return nil
}

// Head returns the abbreviated hash of the current HEAD commit.
func (r *Repository) Head(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}

	return strings.TrimSpace(out), nil
}

// LastCommitMessage returns the subject line of the most recent commit.
func (r *Repository) LastCommitMessage(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "log", "-1", "--pretty=%s")
	if err != nil {
		return "", fmt.Errorf("read last commit message: %w", err)
	}

	return strings.TrimSpace(out), nil
}

// run executes a git command in the working tree and returns its stdout.
// Stderr is attached to the returned error for classification and diagnostics.
func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		details := strings.TrimSpace(stderr.String())
		if details == "" {
			return stdout.String(), fmt.Errorf("git %s: %w", args[0], err)
		}

		return stdout.String(), fmt.Errorf("git %s: %s: %w", args[0], details, err)
	}

	return stdout.String(), nil
}

// classifyPushError maps git push failures onto the pipeline error taxonomy.
func classifyPushError(err error) error {
	details := strings.ToLower(err.Error())

	authorizationMarkers := []string{
		"permission denied",
		"authentication failed",
		"could not read username",
		"access denied",
		"403",
	}
	for _, marker := range authorizationMarkers {
		if strings.Contains(details, marker) {
			return fmt.Errorf("%w: %s", ErrAuthorization, err)
		}
	}

	conflictMarkers := []string{
		"rejected",
		"non-fast-forward",
		"fetch first",
		"protected branch",
		"cannot lock ref",
		"stale info",
	}
	for _, marker := range conflictMarkers {
		if strings.Contains(details, marker) {
			return fmt.Errorf("%w: %s", ErrWriteConflict, err)
		}
	}

	return fmt.Errorf("push: %w", err)
}
