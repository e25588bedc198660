package publisher

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/oshokin/release-button/internal/logger"
)

// ErrDependencyResolution is returned when declared dependency constraints
// are malformed or cannot possibly be satisfied.
var ErrDependencyResolution = errors.New("dependency constraints unsatisfiable")

// constraintRegexp accepts a single version constraint clause: an optional
// operator (^, ~, >=, <=, ==, !=, >, <) followed by a version or wildcard.
var constraintRegexp = regexp.MustCompile(`^(\^|~|>=|<=|==|!=|>|<)?\s*[0-9*][0-9A-Za-z.*+!\-]*$`)

// resolveDependencies validates the declared dependency table before the
// build step. Constraints a resolver could never satisfy fail the run here,
// so a broken manifest is caught before an artifact exists.
func resolveDependencies(ctx context.Context, dependencies map[string]string) error {
	for name, constraint := range dependencies {
		if err := validateConstraint(name, constraint); err != nil {
			return err
		}
	}

	logger.InfoKV(ctx, "Resolved declared dependencies", "count", len(dependencies))

	return nil
}

// validateConstraint checks a single dependency's constraint string.
func validateConstraint(name, constraint string) error {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return fmt.Errorf("%w: %s has an empty constraint", ErrDependencyResolution, name)
	}

	var exactPins []string

	for _, clause := range strings.Split(constraint, ",") {
		clause = strings.TrimSpace(clause)
		if !constraintRegexp.MatchString(clause) {
			return fmt.Errorf("%w: %s has malformed constraint %q", ErrDependencyResolution, name, constraint)
		}

		if pin, ok := strings.CutPrefix(clause, "=="); ok {
			exactPins = append(exactPins, strings.TrimSpace(pin))
		}
	}

	// Two different exact pins in one constraint can never both hold.
	for i := 1; i < len(exactPins); i++ {
		if exactPins[i] != exactPins[0] {
			return fmt.Errorf("%w: %s pins both %s and %s", ErrDependencyResolution, name, exactPins[0], exactPins[i])
		}
	}

	return nil
}
