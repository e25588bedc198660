package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseRef extracts tag names from release refs and rejects malformed input.
func TestParseRef(t *testing.T) {
	t.Parallel()

	tag, err := ParseRef("refs/tags/v1.2.3")
	require.NoError(t, err)
	require.Equal(t, "v1.2.3", tag.Name)

	_, err = ParseRef("")
	require.ErrorIs(t, err, ErrEmptyRef)

	_, err = ParseRef("refs/heads/main")
	require.ErrorIs(t, err, ErrNotTagRef)

	_, err = ParseRef("refs/tags/")
	require.Error(t, err)
}

// TestTagVersion strips a leading non-numeric prefix and keeps everything else intact.
func TestTagVersion(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"v1.2.3":      "1.2.3",
		"1.2.3":       "1.2.3",
		"V2.0.0":      "2.0.0",
		"release-2.0": "2.0",
		"v1.0.0-rc.1": "1.0.0-rc.1",
		// No digits at all: accepted as-is.
		"latest": "latest",
	}
	for name, want := range cases {
		tag, err := NewTag(name)
		require.NoError(t, err)
		require.Equal(t, want, tag.Version())
	}

	_, err := NewTag("  ")
	require.Error(t, err)
}

// TestTagMatches checks glob matching against the configured tag pattern.
func TestTagMatches(t *testing.T) {
	t.Parallel()

	tag := Tag{Name: "v2.0.0"}

	ok, err := tag.Matches("v*")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tag.Matches("release-*")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = tag.Matches("v[")
	require.Error(t, err)
}

// TestPhaseReached verifies the ladder ordering and unknown phase handling.
func TestPhaseReached(t *testing.T) {
	t.Parallel()

	require.True(t, PhaseVersionSynced.Reached(PhaseTagged))
	require.True(t, PhaseVersionSynced.Reached(PhaseVersionSynced))
	require.False(t, PhaseVersionSynced.Reached(PhasePublished))
	require.True(t, PhasePublished.Reached(PhaseVersionSynced))
	require.False(t, Phase("bogus").Reached(PhaseTagged))
	require.False(t, PhasePublished.Reached(Phase("bogus")))
}

// TestStateClone verifies that Clone copies fields and deep-copies the actor.
func TestStateClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*Actor)(nil).Clone())

	s := State{
		Version: "2.0.0",
		Phase:   PhaseVersionSynced,
		Actor: &Actor{
			Hostname: "build-host",
			Username: "release-bot",
		},
	}

	c := s.Clone()
	require.Equal(t, s.Version, c.Version)
	require.Equal(t, s.Phase, c.Phase)
	require.Equal(t, s.Actor, c.Actor)

	// Ensure actor pointer is cloned.
	require.NotSame(t, s.Actor, c.Actor)
}
