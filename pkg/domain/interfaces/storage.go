package interfaces

import (
	"context"
	"io"

	"github.com/secmon-lab/riskreg/pkg/domain/model"
)

// AttachmentStorage stores uploaded documents in two phases so that files are
// only visible once the owning report has been committed.
type AttachmentStorage interface {
	// Stage writes the content to a staging location
	Stage(ctx context.Context, originalName string, r io.Reader) (*model.StagedFile, error)

	// Promote moves a staged file to its permanent location
	Promote(ctx context.Context, file *model.StagedFile) error

	// Discard removes a staged file. Missing files are not an error.
	Discard(ctx context.Context, file *model.StagedFile) error
}
