//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/release-button/internal/logger"
)

const (
	// MarkerFilename marks that a release process is running right now
	// to keep the synchronizer and the publisher from interleaving.
	MarkerFilename = "release-button-marker.bin"

	// markerLifetime is the period after which a marker is considered stale
	// and eligible for reclaim if its owning process is gone.
	markerLifetime = 10 * time.Minute

	// Base release binary names; the platform helper appends the extension.
	baseSyncExecutable    = "release-sync"
	basePublishExecutable = "release-publish"
)

// ErrReleaseInProgress is returned when another release process holds the marker.
var ErrReleaseInProgress = errors.New("another release process is running")

// AcquireLock takes the shared run marker in the provided directory.
// It returns a release function that removes the marker, or
// ErrReleaseInProgress when another release process holds it.
func AcquireLock(ctx context.Context, dir string) (func(), error) {
	markerPath := filepath.Join(dir, MarkerFilename)

	if IsReleaseRunningNow(ctx, markerPath) {
		return nil, ErrReleaseInProgress
	}

	marker, err := os.Create(markerPath)
	if err != nil {
		return nil, err
	}

	if err = marker.Close(); err != nil {
		return nil, err
	}

	return func() {
		_ = os.Remove(markerPath)
	}, nil
}

// IsReleaseRunningNow checks presence of the run marker and reclaims it when
// it is stale and no release process still exists. Unlike a forced takeover,
// a marker with a living owner is always respected.
func IsReleaseRunningNow(ctx context.Context, markerPath string) bool {
	logger.Debug(ctx, "Checking for the presence of a release marker")

	fileInfo, err := os.Stat(markerPath)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The release marker is stale, checking for a living owner")

		if anotherReleaseProcessRunning() {
			return true
		}

		if err = os.Remove(markerPath); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read release marker: %v", err)

	return false
}

// anotherReleaseProcessRunning reports whether any release binary other than
// this process is currently alive.
func anotherReleaseProcessRunning() bool {
	processList, err := ps.Processes()
	if err != nil {
		// Unable to inspect processes: assume the marker owner is alive.
		return true
	}

	releaseExecutables := map[string]struct{}{
		baseSyncExecutable + getExecutableExtension():    {},
		basePublishExecutable + getExecutableExtension(): {},
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if _, found := releaseExecutables[process.Executable()]; found {
			return true
		}
	}

	return false
}

// getExecutableExtension returns ".exe" on Windows and "" elsewhere.
func getExecutableExtension() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return ".exe"
	}

	return ""
}
