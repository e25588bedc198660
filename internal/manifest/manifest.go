package manifest

import (
	"bytes"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	goupdate "github.com/doitdistributed/go-update"

	// Ensure SHA512 is available for the atomic replace checksum.
	_ "crypto/sha512"
)

const (
	// DefaultFileMode is used when rewriting the manifest on disk.
	DefaultFileMode os.FileMode = 0o644

	// replaceChecksumFunction verifies the rewritten manifest during the atomic replace.
	replaceChecksumFunction crypto.Hash = crypto.SHA512
)

var (
	// ErrVersionLineMissing is returned when no version line exists in the manifest.
	ErrVersionLineMissing = errors.New("manifest has no version line")
	// ErrVersionLineAmbiguous is returned when more than one version line exists.
	ErrVersionLineAmbiguous = errors.New("manifest has more than one version line")
	// errHashUnavailable is returned when the checksum function is not compiled in.
	errHashUnavailable = errors.New("hash function unavailable")

	// versionLineRegexp matches a manifest line of the form `version = "<anything>"`,
	// capturing the indentation so the rewrite preserves it.
	versionLineRegexp = regexp.MustCompile(`^(\s*)version\s*=\s*"(.*)"\s*$`)
	// sectionRegexp matches a section header line such as `[tool.poetry.dependencies]`.
	sectionRegexp = regexp.MustCompile(`^\s*\[(.+)\]\s*$`)
	// entryRegexp matches a `key = value` line inside a section.
	entryRegexp = regexp.MustCompile(`^\s*([A-Za-z0-9_."'\-]+)\s*=\s*(.+?)\s*$`)
)

// Manifest is the package manifest read from disk. Mutation is limited to the
// version line: everything else is carried through byte-for-byte on save.
type Manifest struct {
	// Name is the declared package name.
	Name string
	// Version is the declared package version.
	Version string
	// Description is the declared package description.
	Description string
	// Dependencies maps package names to raw version constraint strings.
	Dependencies map[string]string
	// EntryPoints maps command names to callable references.
	EntryPoints map[string]string

	// path is where the manifest lives on disk.
	path string
	// lines holds the raw file content split on newlines.
	lines []string
	// versionLine is the index of the single version line.
	versionLine int
}

// Load reads and parses the manifest at the provided path. A manifest with
// zero or multiple version lines is rejected up front: rewriting either would
// be undefined behavior for a release pipeline.
func Load(path string) (*Manifest, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m := &Manifest{
		Dependencies: make(map[string]string),
		EntryPoints:  make(map[string]string),
		path:         path,
		lines:        strings.Split(string(contents), "\n"),
		versionLine:  -1,
	}

	if err = m.locateVersionLine(); err != nil {
		return nil, err
	}

	m.parseMetadata()

	return m, nil
}

// locateVersionLine finds the single `version = "..."` line and records it.
func (m *Manifest) locateVersionLine() error {
	for i, line := range m.lines {
		matches := versionLineRegexp.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		if m.versionLine >= 0 {
			return ErrVersionLineAmbiguous
		}

		m.versionLine = i
		m.Version = matches[2]
	}

	if m.versionLine < 0 {
		return ErrVersionLineMissing
	}

	return nil
}

// parseMetadata extracts name, description, dependencies and entry points.
// Unknown sections and values it cannot interpret are ignored: the manifest
// store only needs the subset the publisher consumes.
func (m *Manifest) parseMetadata() {
	var section string

	for _, line := range m.lines {
		if headerMatches := sectionRegexp.FindStringSubmatch(line); headerMatches != nil {
			section = strings.ToLower(strings.TrimSpace(headerMatches[1]))
			continue
		}

		entryMatches := entryRegexp.FindStringSubmatch(line)
		if entryMatches == nil {
			continue
		}

		key := strings.Trim(entryMatches[1], `"'`)
		value := unquote(entryMatches[2])

		switch {
		case strings.HasSuffix(section, "dependencies"):
			m.Dependencies[key] = value
		case strings.HasSuffix(section, "scripts") || strings.Contains(section, "entry-points"):
			m.EntryPoints[key] = value
		default:
			switch key {
			case "name":
				if m.Name == "" {
					m.Name = value
				}
			case "description":
				if m.Description == "" {
					m.Description = value
				}
			}
		}
	}
}

// SetVersion rewrites the version line to carry the provided version.
// It returns false when the manifest already carries that version.
func (m *Manifest) SetVersion(version string) (bool, error) {
	if m.versionLine < 0 || m.versionLine >= len(m.lines) {
		return false, ErrVersionLineMissing
	}

	if m.Version == version {
		return false, nil
	}

	indent := versionLineRegexp.FindStringSubmatch(m.lines[m.versionLine])[1]
	m.lines[m.versionLine] = fmt.Sprintf(`%sversion = "%s"`, indent, version)
	m.Version = version

	return true, nil
}

// Save writes the manifest back to disk through a checksum-verified atomic
// replace, so a crashed run can never leave a half-written manifest behind.
func (m *Manifest) Save() error {
	contents := []byte(strings.Join(m.lines, "\n"))

	if !replaceChecksumFunction.Available() {
		return fmt.Errorf("manifest replace not possible: %w", errHashUnavailable)
	}

	hasher := replaceChecksumFunction.New()
	if _, err := hasher.Write(contents); err != nil {
		return fmt.Errorf("calculate manifest checksum: %w", err)
	}

	options := goupdate.Options{
		TargetPath: m.path,
		TargetMode: DefaultFileMode,
		Checksum:   hasher.Sum(nil),
		Hash:       replaceChecksumFunction,
	}

	if err := goupdate.Apply(bytes.NewReader(contents), options); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}

	// Apply keeps a .old copy of the replaced file on some platforms.
	oldPath := m.path + ".old"
	if _, err := os.Stat(oldPath); err == nil {
		_ = os.Remove(oldPath)
	}

	return nil
}

// Path returns the manifest location on disk.
func (m *Manifest) Path() string {
	return m.path
}

// unquote strips a single level of matching quotes from a value.
func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if first == last && (first == '"' || first == '\'') {
			return value[1 : len(value)-1]
		}
	}

	return value
}
