package release

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode"
)

// RefPrefix is the fixed prefix carried by release event refs.
const RefPrefix = "refs/tags/"

var (
	// ErrEmptyRef is returned when a release event carries no ref.
	ErrEmptyRef = errors.New("release ref is empty")
	// ErrNotTagRef is returned when a ref does not point at a tag.
	ErrNotTagRef = errors.New("release ref is not a tag ref")
	// errEmptyTagName is returned when a tag ref carries no identifier.
	errEmptyTagName = errors.New("tag name is empty")
)

// Tag identifies a release point in source history.
type Tag struct {
	// Name is the raw tag identifier, e.g. "v1.2.3".
	Name string
}

// ParseRef extracts the tag from a release event ref of the form "refs/tags/<name>".
func ParseRef(ref string) (Tag, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Tag{}, ErrEmptyRef
	}

	if !strings.HasPrefix(ref, RefPrefix) {
		return Tag{}, fmt.Errorf("%q: %w", ref, ErrNotTagRef)
	}

	name := strings.TrimPrefix(ref, RefPrefix)
	if name == "" {
		return Tag{}, errEmptyTagName
	}

	return Tag{Name: name}, nil
}

// NewTag wraps a raw tag name as pushed, e.g. "v2.0.0".
func NewTag(name string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, errEmptyTagName
	}

	return Tag{Name: name}, nil
}

// Version returns the manifest version for this tag: the tag name with a
// leading non-numeric prefix (such as "v") stripped. A tag with no digits at
// all is returned as-is, since any string is accepted as a version.
func (t Tag) Version() string {
	stripped := strings.TrimLeftFunc(t.Name, func(r rune) bool {
		return !unicode.IsDigit(r)
	})

	if stripped == "" {
		return t.Name
	}

	return stripped
}

// Matches reports whether the tag name matches the provided glob pattern.
func (t Tag) Matches(pattern string) (bool, error) {
	ok, err := path.Match(pattern, t.Name)
	if err != nil {
		return false, fmt.Errorf("match tag pattern: %w", err)
	}

	return ok, nil
}
