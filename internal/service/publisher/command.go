package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/release-button/internal/config"
	domain "github.com/oshokin/release-button/internal/domain/release"
	"github.com/oshokin/release-button/internal/logger"
	"github.com/oshokin/release-button/internal/manifest"
	"github.com/oshokin/release-button/internal/registry"
	"github.com/oshokin/release-button/internal/repository/state"
	"github.com/oshokin/release-button/internal/service/common"
)

// CredentialEnvVar is the environment variable carrying the registry token.
const CredentialEnvVar = "RELEASE_BUTTON_TOKEN"

var (
	// ErrVersionNotSynced is returned when the manifest does not carry the
	// tag's version yet: publishing would ship a stale artifact.
	ErrVersionNotSynced = errors.New("manifest version does not match the release tag")
	// errCredentialMissing is returned when no upload token was supplied.
	errCredentialMissing = errors.New("registry credential is not set")
	// errTagPatternMismatch is returned when the pushed tag fails the configured glob.
	errTagPatternMismatch = errors.New("tag does not match the configured pattern")
)

// Options contains inputs for the publisher entry point.
type Options struct {
	// ConfigPath is an optional path to pipeline settings (defaults to settings.yaml).
	ConfigPath string
	// TagName is the pushed tag, e.g. "v2.0.0".
	TagName string
	// Credential is the scoped registry upload token.
	Credential registry.Credential
}

// Result describes the outcome of a publisher run.
type Result struct {
	// Version is the published version.
	Version string
	// Artifact is the name of the uploaded artifact file.
	Artifact string
}

// publisher builds and uploads a distributable package for a pushed tag.
// It is unexported: callers go through Run, which handles setup and locking.
type publisher struct {
	// cfg holds the pipeline settings.
	cfg *config.Config
	// tag is the pushed release tag.
	tag domain.Tag
	// credential is the scoped registry upload token.
	credential registry.Credential
	// states records the release phase shared with the synchronizer.
	states state.Repository
	// temporaryDirectory is where the artifact is assembled before upload.
	temporaryDirectory string
}

// Run executes the publishing workflow.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "release-publish")

	tag, err := domain.NewTag(opts.TagName)
	if err != nil {
		return nil, err
	}

	if opts.Credential.Empty() {
		return nil, errCredentialMissing
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	matches, err := tag.Matches(cfg.TagPattern)
	if err != nil {
		return nil, err
	}

	if !matches {
		return nil, fmt.Errorf("%w: %s does not match %s", errTagPatternMismatch, tag.Name, cfg.TagPattern)
	}

	releaseLock, err := common.AcquireLock(ctx, cfg.RepositoryPath)
	if err != nil {
		return nil, err
	}

	defer releaseLock()

	p := &publisher{
		cfg:        cfg,
		tag:        tag,
		credential: opts.Credential,
		states:     state.NewFileRepository(filepath.Join(cfg.RepositoryPath, cfg.StateFile)),
	}

	defer p.cleanup(ctx)

	result, err := p.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("publisher failed: %w", err)
	}

	logger.Info(ctx, "Publisher completed successfully")

	return result, nil
}

// Run builds the artifact and uploads it to the registry, in strict order:
// gate on the synchronized version, resolve dependencies, build, upload.
func (p *publisher) Run(ctx context.Context) (*Result, error) {
	version := p.tag.Version()

	logger.InfoKV(ctx, "Publishing release",
		"tag", p.tag.Name, "version", version)

	m, err := manifest.Load(filepath.Join(p.cfg.RepositoryPath, p.cfg.ManifestFile))
	if err != nil {
		return nil, err
	}

	if err = p.ensureVersionSynced(ctx, m, version); err != nil {
		return nil, err
	}

	if err = resolveDependencies(ctx, m.Dependencies); err != nil {
		return nil, err
	}

	artifact, err := p.buildArtifact(ctx, m)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Uploading artifact",
		"artifact", filepath.Base(artifact.Path), "registry", p.cfg.RegistryURL)

	client := registry.NewClient(p.cfg.RegistryURL, p.cfg.Timeout)
	if err = client.Upload(ctx, artifact, p.credential); err != nil {
		return nil, err
	}

	if err = p.recordPublished(ctx, version); err != nil {
		return nil, err
	}

	return &Result{
		Version:  version,
		Artifact: filepath.Base(artifact.Path),
	}, nil
}

// ensureVersionSynced refuses to build from a manifest that has not caught up
// with the release tag. A recorded state explains the mismatch in the logs;
// a manifest bumped by hand without a state record is accepted as synced.
func (p *publisher) ensureVersionSynced(ctx context.Context, m *manifest.Manifest, version string) error {
	if m.Version == version {
		return nil
	}

	recorded, err := p.states.Load(ctx)
	switch {
	case errors.Is(err, state.ErrNotFound):
		logger.Warn(ctx, "No release state recorded, the synchronizer likely has not run yet")
	case err != nil:
		return err
	default:
		logger.WarnKV(ctx, "Recorded release state is behind the tag",
			"recorded_version", recorded.Version, "recorded_phase", string(recorded.Phase))
	}

	return fmt.Errorf("%w: manifest has %q, tag requires %q", ErrVersionNotSynced, m.Version, version)
}

// recordPublished persists the published phase for the version.
func (p *publisher) recordPublished(ctx context.Context, version string) error {
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	err = p.states.Save(ctx, &domain.State{
		Version:   version,
		Phase:     domain.PhasePublished,
		Timestamp: time.Now().UTC(),
		Actor:     actor,
	})
	if err != nil {
		return fmt.Errorf("record release state: %w", err)
	}

	return nil
}

// cleanup removes the temporary build directory; the artifact is not retained
// locally after upload.
func (p *publisher) cleanup(ctx context.Context) {
	if p.temporaryDirectory == "" {
		return
	}

	if _, err := os.Stat(p.temporaryDirectory); err == nil {
		_ = os.RemoveAll(p.temporaryDirectory)
	}

	logger.Debug(ctx, "Removed temporary build directory")
}
