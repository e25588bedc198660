// Package registry uploads built artifacts to the package index.
//
// The protocol surface is intentionally narrow: authenticate with a scoped
// credential, upload a named artifact, and surface duplicate versions as a
// distinct conflict error that is never retried. The Credential type keeps
// the token opaque and masked everywhere it could be printed.
package registry
