package publisher

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oshokin/release-button/internal/config"
	"github.com/oshokin/release-button/internal/logger"
	"github.com/oshokin/release-button/internal/manifest"
	"github.com/oshokin/release-button/internal/registry"
	"github.com/oshokin/release-button/internal/service/common"
)

// ErrBuild is returned when artifact construction fails.
var ErrBuild = errors.New("artifact build failed")

// buildArtifact assembles the source distribution in a temporary directory
// and computes its checksum.
func (p *publisher) buildArtifact(ctx context.Context, m *manifest.Manifest) (*registry.Artifact, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("%w: manifest declares no package name", ErrBuild)
	}

	temporaryDirectory, err := os.MkdirTemp("", "release-button-")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	p.temporaryDirectory = temporaryDirectory

	artifactName := fmt.Sprintf("%s-%s.tar.gz", m.Name, m.Version)
	artifactPath := filepath.Join(temporaryDirectory, artifactName)

	logger.InfoKV(ctx, "Building artifact", "artifact", artifactName)

	archivePrefix := fmt.Sprintf("%s-%s", m.Name, m.Version)
	if err = p.writeSourceArchive(artifactPath, archivePrefix); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	checksum, err := common.GetFileChecksum(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	return &registry.Artifact{
		Name:     m.Name,
		Version:  m.Version,
		Path:     artifactPath,
		Checksum: checksum,
	}, nil
}

// writeSourceArchive packs the repository tree into a gzipped tarball,
// leaving out source control internals and the pipeline's own files.
func (p *publisher) writeSourceArchive(artifactPath, archivePrefix string) error {
	output, err := os.Create(filepath.Clean(artifactPath))
	if err != nil {
		return err
	}

	gzipWriter := gzip.NewWriter(output)
	tarWriter := tar.NewWriter(gzipWriter)

	walkErr := filepath.WalkDir(p.cfg.RepositoryPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}

			return nil
		}

		if !entry.Type().IsRegular() || p.isExcluded(entry.Name()) {
			return nil
		}

		return addFileToArchive(tarWriter, path, p.cfg.RepositoryPath, archivePrefix)
	})

	for _, closeErr := range []error{tarWriter.Close(), gzipWriter.Close(), output.Close()} {
		if walkErr == nil {
			walkErr = closeErr
		}
	}

	return walkErr
}

// isExcluded reports whether a file belongs to the pipeline, not the package.
func (p *publisher) isExcluded(name string) bool {
	switch name {
	case common.MarkerFilename, p.cfg.StateFile, config.DefaultConfigFilename:
		return true
	default:
		return false
	}
}

// addFileToArchive writes one file into the tarball under the archive prefix.
func addFileToArchive(tarWriter *tar.Writer, path, root, archivePrefix string) error {
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}

	header.Name = archivePrefix + "/" + filepath.ToSlash(relPath)

	if err = tarWriter.WriteHeader(header); err != nil {
		return err
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = file.Close()
	}()

	if _, err = io.Copy(tarWriter, file); err != nil {
		return err
	}

	return nil
}
