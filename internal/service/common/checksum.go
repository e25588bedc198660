//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

// DefaultChecksumFunction is used to calculate artifact hashes.
const DefaultChecksumFunction crypto.Hash = crypto.SHA512

var errHashUnavailable = errors.New("hash function unavailable")

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	hash := hasher.Sum(nil)

	return hash, nil
}
