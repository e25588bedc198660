package publisher

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-button/internal/config"
	"github.com/oshokin/release-button/internal/manifest"
	"github.com/oshokin/release-button/internal/service/common"
)

// buildFixture creates a small project tree with a manifest and pipeline files.
func buildFixture(t *testing.T) (*publisher, *manifest.Manifest) {
	t.Helper()

	dir := t.TempDir()

	manifestContents := "[tool.poetry]\nname = \"docstring-helper\"\nversion = \"2.0.0\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(manifestContents), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "docstring_helper"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docstring_helper", "__init__.py"), []byte("__version__ = \"2.0.0\"\n"), 0o644))

	// Pipeline files that must never ship inside the artifact.
	require.NoError(t, os.WriteFile(filepath.Join(dir, common.MarkerFilename), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultStateFilename), []byte("version: 2.0.0\n"), 0o644))

	cfg := &config.Config{
		RepositoryPath: dir,
		RegistryURL:    "https://registry.local/upload",
	}
	require.NoError(t, config.Validate(cfg))

	m, err := manifest.Load(filepath.Join(dir, cfg.ManifestFile))
	require.NoError(t, err)

	return &publisher{cfg: cfg}, m
}

// archiveEntries lists the file names inside a gzipped tarball.
func archiveEntries(t *testing.T, path string) []string {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)

	defer func() {
		_ = file.Close()
	}()

	gzipReader, err := gzip.NewReader(file)
	require.NoError(t, err)

	var names []string

	tarReader := tar.NewReader(gzipReader)

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)
		names = append(names, header.Name)
	}

	return names
}

// TestBuildArtifact assembles a prefixed source tarball with a checksum.
func TestBuildArtifact(t *testing.T) {
	t.Parallel()

	p, m := buildFixture(t)

	t.Cleanup(func() {
		p.cleanup(context.Background())
	})

	artifact, err := p.buildArtifact(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, "docstring-helper", artifact.Name)
	require.Equal(t, "2.0.0", artifact.Version)
	require.Equal(t, "docstring-helper-2.0.0.tar.gz", filepath.Base(artifact.Path))
	require.Len(t, artifact.Checksum, 64)

	names := archiveEntries(t, artifact.Path)
	require.Contains(t, names, "docstring-helper-2.0.0/pyproject.toml")
	require.Contains(t, names, "docstring-helper-2.0.0/docstring_helper/__init__.py")

	// Pipeline files stay out of the artifact.
	for _, name := range names {
		require.NotContains(t, name, common.MarkerFilename)
		require.NotContains(t, name, config.DefaultStateFilename)
	}
}

// TestBuildArtifact_RequiresPackageName fails the build on a nameless manifest.
func TestBuildArtifact_RequiresPackageName(t *testing.T) {
	t.Parallel()

	p, m := buildFixture(t)
	m.Name = ""

	_, err := p.buildArtifact(context.Background(), m)
	require.ErrorIs(t, err, ErrBuild)
}
