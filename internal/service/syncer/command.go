package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oshokin/release-button/internal/config"
	domain "github.com/oshokin/release-button/internal/domain/release"
	"github.com/oshokin/release-button/internal/logger"
	"github.com/oshokin/release-button/internal/manifest"
	"github.com/oshokin/release-button/internal/repository/gitrepo"
	"github.com/oshokin/release-button/internal/repository/state"
	"github.com/oshokin/release-button/internal/service/common"
)

// Options contains inputs for the version synchronizer entry point.
type Options struct {
	// ConfigPath is an optional path to pipeline settings (defaults to settings.yaml).
	ConfigPath string
	// ReleaseRef is the release event ref, e.g. "refs/tags/v2.0.0".
	ReleaseRef string
}

// Result describes the outcome of a synchronizer run.
type Result struct {
	// Version is the normalized version written to the manifest.
	Version string
	// Committed reports whether a bump commit was created and pushed.
	// A manifest already carrying the version yields a successful no-op.
	Committed bool
	// CommitHash is the abbreviated hash of the bump commit, if any.
	CommitHash string
}

// syncer keeps the manifest's version field consistent with the release tag.
// It is unexported: callers go through Run, which handles setup and locking.
type syncer struct {
	// cfg holds the pipeline settings.
	cfg *config.Config
	// repo executes git operations against the working tree.
	repo *gitrepo.Repository
	// states records the release phase for the publisher to gate on.
	states state.Repository
	// tag is the release tag extracted from the event ref.
	tag domain.Tag
}

// Run executes the version synchronization workflow.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "release-sync")

	tag, err := domain.ParseRef(opts.ReleaseRef)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	releaseLock, err := common.AcquireLock(ctx, cfg.RepositoryPath)
	if err != nil {
		return nil, err
	}

	defer releaseLock()

	s := &syncer{
		cfg:    cfg,
		repo:   gitrepo.New(cfg.RepositoryPath),
		states: state.NewFileRepository(filepath.Join(cfg.RepositoryPath, cfg.StateFile)),
		tag:    tag,
	}

	result, err := s.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("synchronizer failed: %w", err)
	}

	logger.Info(ctx, "Version synchronizer completed successfully")

	return result, nil
}

// Run rewrites the manifest version and pushes the bump commit.
func (s *syncer) Run(ctx context.Context) (*Result, error) {
	version := s.tag.Version()

	logger.InfoKV(ctx, "Synchronizing manifest version",
		"tag", s.tag.Name, "version", version)

	m, err := manifest.Load(filepath.Join(s.cfg.RepositoryPath, s.cfg.ManifestFile))
	if err != nil {
		return nil, err
	}

	changed, err := m.SetVersion(version)
	if err != nil {
		return nil, err
	}

	if !changed {
		logger.InfoKV(ctx, "Manifest already carries the version, skipping commit",
			"version", version)

		if err = s.recordVersionSynced(ctx, version); err != nil {
			return nil, err
		}

		return &Result{Version: version}, nil
	}

	if err = m.Save(); err != nil {
		return nil, err
	}

	commitHash, committed, err := s.commitAndPush(ctx, version)
	if err != nil {
		return nil, err
	}

	if err = s.recordVersionSynced(ctx, version); err != nil {
		return nil, err
	}

	return &Result{
		Version:    version,
		Committed:  committed,
		CommitHash: commitHash,
	}, nil
}

// commitAndPush stages the manifest, commits the bump and pushes it.
func (s *syncer) commitAndPush(ctx context.Context, version string) (string, bool, error) {
	if err := s.repo.Add(ctx, s.cfg.ManifestFile); err != nil {
		return "", false, err
	}

	// Committing with nothing staged fails, so guard even after a rewrite:
	// the working tree may already hold the committed bump.
	staged, err := s.repo.HasStagedChanges(ctx)
	if err != nil {
		return "", false, err
	}

	if !staged {
		logger.Info(ctx, "No staged changes after rewrite, skipping commit")
		return "", false, nil
	}

	identity := gitrepo.Identity{
		Name:  s.cfg.CommitterName,
		Email: s.cfg.CommitterEmail,
	}

	message := fmt.Sprintf("Bump version to %s", version)
	if err = s.repo.Commit(ctx, message, identity); err != nil {
		return "", false, err
	}

	logger.InfoKV(ctx, "Pushing version bump",
		"remote", s.cfg.Remote, "branch", s.cfg.DefaultBranch)

	if err = s.repo.Push(ctx, s.cfg.Remote, s.cfg.DefaultBranch); err != nil {
		return "", false, err
	}

	commitHash, err := s.repo.Head(ctx)
	if err != nil {
		return "", false, err
	}

	return commitHash, true, nil
}

// recordVersionSynced persists the version-synced phase for the publisher.
func (s *syncer) recordVersionSynced(ctx context.Context, version string) error {
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	err = s.states.Save(ctx, &domain.State{
		Version:   version,
		Phase:     domain.PhaseVersionSynced,
		Timestamp: time.Now().UTC(),
		Actor:     actor,
	})
	if err != nil {
		return fmt.Errorf("record release state: %w", err)
	}

	return nil
}
