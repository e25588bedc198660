// Package publisher builds and uploads a distributable package for a pushed
// release tag.
//
// A run gates on the manifest carrying the tag's version, validates the
// declared dependency table, assembles a gzipped source tarball with a
// SHA-512 checksum and uploads it to the registry. A version that already
// exists on the registry surfaces as a distinct conflict error and is never
// retried.
package publisher
