// Package manifest reads and rewrites the package manifest file.
//
// The store is deliberately line-oriented: the version synchronizer's contract
// is to rewrite exactly one `version = "..."` line and leave every other byte
// of the file untouched, which a parse-and-re-emit round trip cannot promise.
// Saving goes through a checksum-verified atomic replace.
package manifest
