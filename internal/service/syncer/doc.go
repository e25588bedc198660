// Package syncer keeps the package manifest's version field consistent with
// the most recently published release tag.
//
// A run strips the "refs/tags/" prefix from the release ref, normalizes the
// tag, rewrites the single version line in the manifest, commits the change
// with the automation identity and pushes it to the default branch. A manifest
// already carrying the version produces a successful no-op instead of a
// content-free commit.
package syncer
