package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds release pipeline settings shared by the release binaries.
type Config struct {
	// RepositoryPath is the local path to the source repository being released.
	RepositoryPath string `yaml:"repository_path"`
	// ManifestFile is the package manifest filename relative to the repository.
	ManifestFile string `yaml:"manifest_file"`
	// DefaultBranch is the branch version bumps are pushed to.
	DefaultBranch string `yaml:"default_branch"`
	// Remote is the name of the git remote to push to.
	Remote string `yaml:"remote"`
	// RegistryURL is the package registry upload endpoint.
	RegistryURL string `yaml:"registry_url"`
	// TagPattern is the glob release tags must match before publishing (e.g. "v*").
	TagPattern string `yaml:"tag_pattern"`
	// StateFile is the release state filename relative to the repository.
	StateFile string `yaml:"state_file"`
	// CommitterName is the automation identity used for version bump commits.
	CommitterName string `yaml:"committer_name"`
	// CommitterEmail is the automation identity email for version bump commits.
	CommitterEmail string `yaml:"committer_email"`
	// Timeout is the duration for registry and git network operations.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for pipeline settings.
	DefaultConfigFilename = "release-button-settings.yaml"

	// DefaultManifestFilename is the default package manifest filename.
	DefaultManifestFilename = "pyproject.toml"

	// DefaultStateFilename is the default filename for the release state record.
	DefaultStateFilename = "release-button-state.yaml"

	// DefaultBranchName is the branch version bumps land on unless configured.
	DefaultBranchName = "main"

	// DefaultRemoteName is the git remote pushed to unless configured.
	DefaultRemoteName = "origin"

	// DefaultTagPattern is the glob release tags must match unless configured.
	DefaultTagPattern = "v*"

	// DefaultCommitterName identifies the automation in version bump commits.
	DefaultCommitterName = "release-button"

	// DefaultCommitterEmail is the automation commit email.
	DefaultCommitterEmail = "release-button@users.noreply.github.com"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 60 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errRegistryURLRequired is returned when the registry endpoint is missing.
	errRegistryURLRequired = errors.New("registry URL must be provided")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.RegistryURL == "" {
		return errRegistryURLRequired
	}

	if _, err := url.ParseRequestURI(cfg.RegistryURL); err != nil {
		return fmt.Errorf("invalid registry URL: %w", err)
	}

	if cfg.RepositoryPath == "" {
		cfg.RepositoryPath = "."
	}

	if cfg.ManifestFile == "" {
		cfg.ManifestFile = DefaultManifestFilename
	}

	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = DefaultBranchName
	}

	if cfg.Remote == "" {
		cfg.Remote = DefaultRemoteName
	}

	if cfg.TagPattern == "" {
		cfg.TagPattern = DefaultTagPattern
	}

	// Probe the glob so a broken pattern fails at load time, not at publish time.
	if _, err := path.Match(cfg.TagPattern, "probe"); err != nil {
		return fmt.Errorf("invalid tag pattern %q: %w", cfg.TagPattern, err)
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	if cfg.CommitterName == "" {
		cfg.CommitterName = DefaultCommitterName
	}

	if cfg.CommitterEmail == "" {
		cfg.CommitterEmail = DefaultCommitterEmail
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}
