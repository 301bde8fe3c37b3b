package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/utils/safe"
)

const stagingDir = ".staging"

// Local stores attachments under a directory on the local file system
type Local struct {
	root string
}

var _ interfaces.AttachmentStorage = &Local{}

// NewLocal creates a Local storage rooted at dir, creating the directory if needed
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, goerr.New("storage directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, stagingDir), 0o750); err != nil {
		return nil, goerr.Wrap(err, "failed to create storage directory", goerr.V("dir", dir))
	}
	return &Local{root: dir}, nil
}

func (s *Local) Stage(ctx context.Context, originalName string, r io.Reader) (*model.StagedFile, error) {
	mimeType, body, err := sniff(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to inspect file", goerr.V("name", originalName))
	}

	key := newKey()
	stagingPath := filepath.Join(s.root, stagingDir, key)

	// #nosec G304 - path is built from a generated key
	f, err := os.OpenFile(stagingPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create staging file", goerr.V("path", stagingPath))
	}

	size, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		safe.Remove(ctx, stagingPath)
		return nil, goerr.Wrap(err, "failed to write staging file", goerr.V("path", stagingPath))
	}

	return &model.StagedFile{
		Key:          key,
		OriginalName: originalName,
		StagingPath:  stagingPath,
		StoredPath:   storedObjectPath(key, originalName),
		Size:         size,
		MIMEType:     mimeType,
	}, nil
}

func (s *Local) Promote(ctx context.Context, file *model.StagedFile) error {
	dst := s.Path(file.StoredPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return goerr.Wrap(err, "failed to create attachment directory", goerr.V("path", dst))
	}
	if err := os.Rename(file.StagingPath, dst); err != nil {
		return goerr.Wrap(err, "failed to promote staged file",
			goerr.V("staging_path", file.StagingPath), goerr.V("stored_path", dst))
	}
	return nil
}

func (s *Local) Discard(ctx context.Context, file *model.StagedFile) error {
	if err := os.Remove(file.StagingPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to discard staged file", goerr.V("path", file.StagingPath))
	}
	return nil
}

// Path resolves a stored path to its location on disk
func (s *Local) Path(storedPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(storedPath))
}
