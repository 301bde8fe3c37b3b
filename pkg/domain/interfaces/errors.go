package interfaces

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = goerr.New("not found")

	// ErrConflict is returned when a write loses against concurrent or prior state,
	// e.g. a merge source that was already consolidated
	ErrConflict = goerr.New("conflict")

	// ErrEmptyAttachment is returned by AttachmentStorage when an uploaded document has no content
	ErrEmptyAttachment = goerr.New("attachment is empty")
)
