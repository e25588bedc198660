// Package release holds the domain model of the release pipeline: tag refs
// and their normalized versions, the tag glob gate, and the phase ladder
// (tagged, version synced, published) recorded between the two binaries.
package release
