package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/release-button/internal/config"
	domain "github.com/oshokin/release-button/internal/domain/release"
)

// Repository defines persistence operations for the release state.
type Repository interface {
	Load(ctx context.Context) (*domain.State, error)
	Save(ctx context.Context, state *domain.State) error
}

// FileRepository persists the release state to a YAML file on disk.
type FileRepository struct {
	// path is the filesystem location of the YAML state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// ErrNotFound is returned when the state file does not exist yet.
var ErrNotFound = errors.New("release state not found")

// record is the YAML representation of the release state.
type record struct {
	Version   string    `yaml:"version"`
	Phase     string    `yaml:"phase"`
	Timestamp time.Time `yaml:"timestamp"`
	Hostname  string    `yaml:"hostname,omitempty"`
	Username  string    `yaml:"username,omitempty"`
}

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the state from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var rec record
	if err = yaml.Unmarshal(contents, &rec); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return fromRecord(&rec), nil
}

// Save writes the state to disk using YAML representation.
func (r *FileRepository) Save(_ context.Context, state *domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(toRecord(state))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}

// fromRecord converts the YAML record into the domain State model.
func fromRecord(rec *record) *domain.State {
	var actor *domain.Actor
	if rec.Hostname != "" || rec.Username != "" {
		actor = &domain.Actor{
			Hostname: rec.Hostname,
			Username: rec.Username,
		}
	}

	return &domain.State{
		Version:   rec.Version,
		Phase:     domain.Phase(rec.Phase),
		Timestamp: rec.Timestamp,
		Actor:     actor,
	}
}

// toRecord converts the domain State model into its YAML record.
func toRecord(state *domain.State) *record {
	rec := &record{
		Version:   state.Version,
		Phase:     string(state.Phase),
		Timestamp: state.Timestamp,
	}

	if state.Actor != nil {
		rec.Hostname = state.Actor.Hostname
		rec.Username = state.Actor.Username
	}

	return rec
}
