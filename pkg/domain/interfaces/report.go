package interfaces

import (
	"context"

	"github.com/secmon-lab/riskreg/pkg/domain/model"
)

type ReportRepository interface {
	// Commit persists a new report in a single transaction. When the report has no
	// RiskID, the next sequence for commit.Sequence is allocated inside the same
	// transaction. Reports listed in ConsolidateIDs are moved to CONSOLIDATED; if any
	// of them is missing or no longer merge eligible, nothing is written and
	// ErrConflict is returned.
	Commit(ctx context.Context, commit *model.ReportCommit) (*model.RiskReport, error)

	// Get retrieves a report by ID
	Get(ctx context.Context, id int64) (*model.RiskReport, error)

	// List retrieves reports matching the filter, most recent first
	List(ctx context.Context, filter *model.ReportFilter) ([]*model.RiskReport, error)

	// Update overwrites the mutable fields (status, owner, assessments, scores) of an existing report.
	// Consolidated reports are never changed; ErrConflict is returned for them.
	Update(ctx context.Context, report *model.RiskReport) (*model.RiskReport, error)
}

type MergeSelectionRepository interface {
	// Put stores the selection, replacing any previous one for the same session
	Put(ctx context.Context, selection *model.MergeSelection) error

	// Get returns ErrNotFound when no live selection exists for the session
	Get(ctx context.Context, sessionID string) (*model.MergeSelection, error)

	// Delete removes the selection. Missing selections are not an error.
	Delete(ctx context.Context, sessionID string) error
}
