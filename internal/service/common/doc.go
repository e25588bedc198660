// Package common holds helpers shared by the release services: actor
// detection for state records, artifact checksums, and the run-marker lock
// that keeps the synchronizer and the publisher from interleaving.
package common
