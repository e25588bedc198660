package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/release-button/internal/domain/release"
)

// TestFileRepository_LoadMissing returns ErrNotFound when no state was recorded yet.
func TestFileRepository_LoadMissing(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "state.yaml"))

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

// TestFileRepository_SaveLoadRoundtrip persists a state record and reads it back.
func TestFileRepository_SaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "state.yaml"))

	saved := &domain.State{
		Version:   "2.0.0",
		Phase:     domain.PhaseVersionSynced,
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Actor: &domain.Actor{
			Hostname: "build-host",
			Username: "release-bot",
		},
	}

	require.NoError(t, repo.Save(context.Background(), saved))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, saved.Version, loaded.Version)
	require.Equal(t, saved.Phase, loaded.Phase)
	require.True(t, saved.Timestamp.Equal(loaded.Timestamp))
	require.Equal(t, saved.Actor, loaded.Actor)
}

// TestFileRepository_SaveWithoutActor omits actor fields instead of writing empty ones.
func TestFileRepository_SaveWithoutActor(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "state.yaml"))

	require.NoError(t, repo.Save(context.Background(), &domain.State{
		Version: "2.0.0",
		Phase:   domain.PhasePublished,
	}))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, loaded.Actor)
	require.Equal(t, domain.PhasePublished, loaded.Phase)
}
