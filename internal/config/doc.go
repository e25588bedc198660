// Package config defines release pipeline settings used by both binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the repository and manifest locations, the git branch
// and remote version bumps are pushed to, the registry upload endpoint and the
// tag pattern gating publication.
package config
