package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/model/config"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

// ReportUseCase serves the workflow actions on committed reports
type ReportUseCase struct {
	repo   interfaces.Repository
	config *config.RegisterConfig
	scorer *model.Scorer
}

func newReportUseCase(uc *UseCases) *ReportUseCase {
	return &ReportUseCase{
		repo:   uc.repo,
		config: uc.config,
		scorer: uc.scorer,
	}
}

func (uc *ReportUseCase) load(ctx context.Context, id int64) (*model.RiskReport, error) {
	report, err := uc.repo.Report().Get(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, goerr.Wrap(ErrReportNotFound, "report not found", goerr.V(ReportIDKey, id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get report", goerr.V(ReportIDKey, id))
	}
	return report, nil
}

// Get returns a report the current user may read
func (uc *ReportUseCase) Get(ctx context.Context, id int64) (*model.RiskReport, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	report, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(user, report) {
		return nil, goerr.Wrap(ErrAccessDenied, "cannot read report",
			goerr.V(ReportIDKey, id), goerr.V("user_id", user.ID))
	}

	return report, nil
}

// List returns reports matching the filter, most recent first. Risk owners only see their
// own department.
func (uc *ReportUseCase) List(ctx context.Context, filter *model.ReportFilter) ([]*model.RiskReport, error) {
	user, err := requireRole(ctx, types.RoleRiskOwner, types.RoleCompliance)
	if err != nil {
		return nil, err
	}

	scoped := model.ReportFilter{}
	if filter != nil {
		scoped = *filter
	}
	if !user.HasRole(types.RoleCompliance) {
		scoped.Department = user.Department
	}

	reports, err := uc.repo.Report().List(ctx, &scoped)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list reports")
	}
	return reports, nil
}

// MergeCandidates lists the merge-eligible reports of a primary category. Consolidated
// reports and reports produced by a merge are never returned.
func (uc *ReportUseCase) MergeCandidates(ctx context.Context, category types.Category) ([]*model.RiskReport, error) {
	user, err := requireRole(ctx, types.RoleRiskOwner)
	if err != nil {
		return nil, err
	}

	filter := &model.ReportFilter{
		PrimaryCategory:   category,
		MergeEligibleOnly: true,
	}
	if user.Role != types.RoleAdmin {
		filter.Department = user.Department
	}

	reports, err := uc.repo.Report().List(ctx, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list merge candidates", goerr.V("category", category))
	}
	return reports, nil
}

// loadForWrite returns a report the current user may change. Consolidated reports are frozen.
func (uc *ReportUseCase) loadForWrite(ctx context.Context, id int64) (*model.RiskReport, error) {
	user, err := requireRole(ctx, types.RoleRiskOwner)
	if err != nil {
		return nil, err
	}

	report, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canWrite(user, report) {
		return nil, goerr.Wrap(ErrAccessDenied, "cannot change report",
			goerr.V(ReportIDKey, id), goerr.V("user_id", user.ID))
	}
	if report.Status.IsTerminal() {
		return nil, goerr.Wrap(ErrInvalidStatusTransition, "report is consolidated",
			goerr.V(ReportIDKey, id), goerr.V(RiskIDKey, report.RiskID))
	}
	return report, nil
}

func (uc *ReportUseCase) save(ctx context.Context, report *model.RiskReport) (*model.RiskReport, error) {
	updated, err := uc.repo.Report().Update(ctx, report)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, goerr.Wrap(ErrReportNotFound, "report not found", goerr.V(ReportIDKey, report.ID))
	}
	if errors.Is(err, interfaces.ErrConflict) {
		return nil, goerr.Wrap(ErrInvalidStatusTransition, "report changed concurrently", goerr.V(ReportIDKey, report.ID))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update report", goerr.V(ReportIDKey, report.ID))
	}
	return updated, nil
}

// AssignOwner sets the user responsible for treating the risk
func (uc *ReportUseCase) AssignOwner(ctx context.Context, id int64, ownerID string) (*model.RiskReport, error) {
	report, err := uc.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	report.OwnerID = ownerID
	return uc.save(ctx, report)
}

// UpdateStatus moves a report between the manual workflow statuses. CONSOLIDATED is only
// reached through a merge, and never left.
func (uc *ReportUseCase) UpdateStatus(ctx context.Context, id int64, status types.ReportStatus) (*model.RiskReport, error) {
	if !status.IsValid() {
		return nil, newValidationError("status", "unknown status %q", status)
	}
	if status.IsTerminal() {
		return nil, goerr.Wrap(ErrInvalidStatusTransition, "consolidation is only done by merging",
			goerr.V(ReportIDKey, id))
	}

	report, err := uc.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	report.Status = status
	return uc.save(ctx, report)
}

// UpdateClassification replaces the category slots and re-scores the report
func (uc *ReportUseCase) UpdateClassification(ctx context.Context, id int64, input *ScoreInput) (*model.RiskReport, error) {
	if err := input.validate(uc.config); err != nil {
		return nil, goerr.Wrap(err, "classification rejected", goerr.V(ReportIDKey, id))
	}

	report, err := uc.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	report.ApplyScorecard(uc.scorer.Score(input.Primary.toAssessment(), input.secondaryAssessments()))
	return uc.save(ctx, report)
}
