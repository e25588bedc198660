//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"

	domain "github.com/oshokin/release-button/internal/domain/release"
)

// DetectActor gathers host and user information for release state records.
func DetectActor() (*domain.Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &domain.Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
