package storage

import (
	"context"
	"errors"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
)

// GCS stores attachments in a Google Cloud Storage bucket. Staged objects live under
// "<prefix>/staging/" and are copied to "<prefix>/attachments/" on promotion.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.AttachmentStorage = &GCS{}

// NewGCS creates a GCS storage for bucket with an optional object prefix
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *GCS) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *GCS) Stage(ctx context.Context, originalName string, r io.Reader) (*model.StagedFile, error) {
	mimeType, body, err := sniff(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to inspect file", goerr.V("name", originalName))
	}

	key := newKey()
	stagingName := s.objectName(path.Join("staging", key))

	w := s.client.Bucket(s.bucket).Object(stagingName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = mimeType
	w.Metadata = map[string]string{"original_name": originalName}

	size, err := io.Copy(w, body)
	if err != nil {
		_ = w.Close()
		return nil, goerr.Wrap(err, "failed to upload staged object", goerr.V("object", stagingName))
	}
	if err := w.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to finalize staged object", goerr.V("object", stagingName))
	}

	return &model.StagedFile{
		Key:          key,
		OriginalName: originalName,
		StagingPath:  stagingName,
		StoredPath:   s.objectName(storedObjectPath(key, originalName)),
		Size:         size,
		MIMEType:     mimeType,
	}, nil
}

func (s *GCS) Promote(ctx context.Context, file *model.StagedFile) error {
	bucket := s.client.Bucket(s.bucket)
	src := bucket.Object(file.StagingPath)
	dst := bucket.Object(file.StoredPath)

	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		return goerr.Wrap(err, "failed to copy staged object",
			goerr.V("staging_path", file.StagingPath), goerr.V("stored_path", file.StoredPath))
	}
	if err := src.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return goerr.Wrap(err, "failed to delete staged object", goerr.V("object", file.StagingPath))
	}
	return nil
}

func (s *GCS) Discard(ctx context.Context, file *model.StagedFile) error {
	err := s.client.Bucket(s.bucket).Object(file.StagingPath).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return goerr.Wrap(err, "failed to discard staged object", goerr.V("object", file.StagingPath))
	}
	return nil
}

func (s *GCS) Close() error {
	return s.client.Close()
}
