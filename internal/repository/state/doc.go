// Package state persists the release phase record shared by the two binaries.
// The synchronizer writes the version-synced phase, the publisher reads it to
// gate uploads and writes the published phase.
package state
