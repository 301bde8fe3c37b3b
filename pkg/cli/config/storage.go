package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/service/storage"
	"github.com/secmon-lab/riskreg/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Storage holds CLI flags for the attachment storage backend
type Storage struct {
	backend string
	dir     string
	bucket  string
	prefix  string
}

// NewStorageForTest creates a Storage config for testing purposes
func NewStorageForTest(backend, dir, bucket string) *Storage {
	return &Storage{backend: backend, dir: dir, bucket: bucket}
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-backend",
			Usage:       "Attachment storage backend (local or gcs)",
			Category:    "Storage",
			Value:       "local",
			Sources:     cli.EnvVars("RISKREG_STORAGE_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "storage-dir",
			Usage:       "Directory for attachments with the local backend",
			Category:    "Storage",
			Value:       "./uploads",
			Sources:     cli.EnvVars("RISKREG_STORAGE_DIR"),
			Destination: &x.dir,
		},
		&cli.StringFlag{
			Name:        "storage-gcs-bucket",
			Usage:       "Cloud Storage bucket with the gcs backend",
			Category:    "Storage",
			Sources:     cli.EnvVars("RISKREG_STORAGE_GCS_BUCKET"),
			Destination: &x.bucket,
		},
		&cli.StringFlag{
			Name:        "storage-gcs-prefix",
			Usage:       "Object name prefix with the gcs backend",
			Category:    "Storage",
			Sources:     cli.EnvVars("RISKREG_STORAGE_GCS_PREFIX"),
			Destination: &x.prefix,
		},
	}
}

func (x Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("dir", x.dir),
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// Configure creates the attachment storage and a closer releasing its client
func (x *Storage) Configure(ctx context.Context) (interfaces.AttachmentStorage, func(), error) {
	switch x.backend {
	case "local":
		store, err := storage.NewLocal(x.dir)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize local storage", goerr.V("dir", x.dir))
		}
		logging.Default().Info("Using local attachment storage", "dir", x.dir)
		return store, func() {}, nil

	case "gcs":
		store, err := storage.NewGCS(ctx, x.bucket, x.prefix)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize gcs storage", goerr.V("bucket", x.bucket))
		}
		logging.Default().Info("Using Cloud Storage attachment storage", "bucket", x.bucket, "prefix", x.prefix)
		return store, func() {
			if err := store.Close(); err != nil {
				logging.Default().Error("failed to close storage client", "error", err)
			}
		}, nil

	default:
		return nil, nil, goerr.New("invalid storage backend", goerr.V("backend", x.backend))
	}
}
