package release

import "time"

// Phase is a step on the release ladder for a single version.
type Phase string

const (
	// PhaseTagged means a release tag exists but the manifest is not updated yet.
	PhaseTagged Phase = "tagged"
	// PhaseVersionSynced means the manifest carries the tag's version.
	PhaseVersionSynced Phase = "version_synced"
	// PhasePublished means the artifact for the version is on the registry.
	PhasePublished Phase = "published"
)

// phaseOrder maps each phase to its position on the ladder.
//
//nolint:gochecknoglobals // Fixed ladder ordering.
var phaseOrder = map[Phase]int{
	PhaseTagged:        1,
	PhaseVersionSynced: 2,
	PhasePublished:     3,
}

// Reached reports whether p is at or past the other phase on the ladder.
// Unknown phases never satisfy anything.
func (p Phase) Reached(other Phase) bool {
	current, ok := phaseOrder[p]
	if !ok {
		return false
	}

	required, ok := phaseOrder[other]
	if !ok {
		return false
	}

	return current >= required
}

// Actor identifies who performed a release step.
type Actor struct {
	// Hostname is the machine name where the step was performed.
	Hostname string
	// Username is the system user who triggered the step.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// State records how far a version has progressed through the release ladder.
type State struct {
	// Version is the normalized version the record is about.
	Version string
	// Phase is the last completed step for the version.
	Phase Phase
	// Timestamp is when the phase was recorded.
	Timestamp time.Time
	// Actor is who performed the recorded step.
	Actor *Actor
}

// Clone returns a copy of the state to avoid leaking internal references.
func (s *State) Clone() *State {
	return &State{
		Version:   s.Version,
		Phase:     s.Phase,
		Timestamp: s.Timestamp,
		Actor:     s.Actor.Clone(),
	}
}
