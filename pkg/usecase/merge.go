package usecase

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/model/config"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

// MergeUseCase keeps the short-lived set of reports a session is merging
type MergeUseCase struct {
	repo   interfaces.Repository
	config *config.RegisterConfig
	clock  func() time.Time
}

func newMergeUseCase(uc *UseCases) *MergeUseCase {
	return &MergeUseCase{
		repo:   uc.repo,
		config: uc.config,
		clock:  uc.clock,
	}
}

func (uc *MergeUseCase) ttl() time.Duration {
	if uc.config.MergeSelectionTTL > 0 {
		return uc.config.MergeSelectionTTL
	}
	return model.DefaultMergeSelectionTTL
}

// Select stores the reports to merge for the session, replacing any previous selection.
// At least two distinct merge-eligible reports are required; their order is kept and
// determines the merged identifier.
func (uc *MergeUseCase) Select(ctx context.Context, sessionID string, reportIDs []int64) (*model.MergeSelection, error) {
	user, err := requireRole(ctx, types.RoleRiskOwner)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, newValidationError("session", "session is required to merge")
	}

	ids := make([]int64, 0, len(reportIDs))
	for _, id := range reportIDs {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) < 2 {
		return nil, goerr.Wrap(ErrInsufficientMergeSources, "merge selection is too small",
			goerr.V("report_ids", reportIDs))
	}

	riskIDs := make([]model.RiskID, 0, len(ids))
	for _, id := range ids {
		report, err := uc.repo.Report().Get(ctx, id)
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrReportNotFound, "merge source not found", goerr.V(ReportIDKey, id))
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get merge source", goerr.V(ReportIDKey, id))
		}
		if !canWrite(user, report) {
			return nil, goerr.Wrap(ErrAccessDenied, "cannot merge report of another department",
				goerr.V(ReportIDKey, id), goerr.V("department", report.Department))
		}
		if !report.IsMergeEligible() {
			return nil, goerr.Wrap(ErrNotMergeEligible, "report cannot be merged",
				goerr.V(ReportIDKey, id), goerr.V(RiskIDKey, report.RiskID), goerr.V("status", report.Status))
		}
		riskIDs = append(riskIDs, report.RiskID)
	}

	if _, err := model.MergedRiskID(riskIDs); err != nil {
		return nil, goerr.Wrap(newIdentifierError("merge", "merge source identifier is malformed"), "invalid merge sources")
	}

	now := uc.clock()
	selection := &model.MergeSelection{
		SessionID: sessionID,
		ReportIDs: ids,
		RiskIDs:   riskIDs,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.ttl()),
	}
	if err := uc.repo.MergeSelection().Put(ctx, selection); err != nil {
		return nil, goerr.Wrap(err, "failed to save merge selection", goerr.V(SessionIDKey, sessionID))
	}

	return selection, nil
}

// Get returns the live selection of the session, or nil when it is not merging
func (uc *MergeUseCase) Get(ctx context.Context, sessionID string) (*model.MergeSelection, error) {
	if _, err := currentUser(ctx); err != nil {
		return nil, err
	}
	return activeSelection(ctx, uc.repo, sessionID, uc.clock())
}

// Cancel drops the session's selection
func (uc *MergeUseCase) Cancel(ctx context.Context, sessionID string) error {
	if _, err := currentUser(ctx); err != nil {
		return err
	}
	if sessionID == "" {
		return nil
	}
	if err := uc.repo.MergeSelection().Delete(ctx, sessionID); err != nil {
		return goerr.Wrap(err, "failed to delete merge selection", goerr.V(SessionIDKey, sessionID))
	}
	return nil
}
