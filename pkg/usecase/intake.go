package usecase

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/model/config"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/secmon-lab/riskreg/pkg/utils/async"
	"github.com/secmon-lab/riskreg/pkg/utils/errutil"
	"github.com/secmon-lab/riskreg/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// AttachmentInput is an uploaded document waiting to be stored
type AttachmentInput struct {
	Name    string
	Size    int64
	Content io.Reader
}

// SubmitInput is a risk report as submitted from the intake form.
// SessionID selects the merge selection, if any, that turns the submission into a merge.
type SubmitInput struct {
	ScoreInput
	SessionID   string
	Department  string
	Description string
	Treatment   string
	Causes      map[types.CauseTaxonomy][]string
	Attachments []AttachmentInput
}

// StageHook observes every stage an intake run enters
type StageHook func(ctx context.Context, stage types.IntakeStage)

type IntakeUseCase struct {
	repo       interfaces.Repository
	storage    interfaces.AttachmentStorage
	notifier   interfaces.Notifier
	config     *config.RegisterConfig
	scorer     *model.Scorer
	clock      func() time.Time
	dispatcher *async.Dispatcher
	stageHook  StageHook
}

func newIntakeUseCase(uc *UseCases) *IntakeUseCase {
	return &IntakeUseCase{
		repo:       uc.repo,
		storage:    uc.storage,
		notifier:   uc.notifier,
		config:     uc.config,
		scorer:     uc.scorer,
		clock:      uc.clock,
		dispatcher: uc.dispatcher,
		stageHook:  uc.stageHook,
	}
}

// intakeRun tracks one submission attempt through the intake stages
type intakeRun struct {
	ctx     context.Context
	stage   types.IntakeStage
	hook    StageHook
	started time.Time
}

func (uc *IntakeUseCase) newRun(ctx context.Context) *intakeRun {
	run := &intakeRun{
		ctx:     ctx,
		stage:   types.IntakeStageDraft,
		hook:    uc.stageHook,
		started: time.Now(),
	}
	if run.hook != nil {
		run.hook(ctx, run.stage)
	}
	return run
}

func (r *intakeRun) enter(stage types.IntakeStage) {
	logger := logging.From(r.ctx)
	if stage.IsFinal() {
		logger.Info("intake finished", "from", r.stage, "stage", stage)
	} else {
		logger.Debug("intake stage", "from", r.stage, "stage", stage)
	}
	r.stage = stage
	if r.hook != nil {
		r.hook(r.ctx, stage)
	}
	if stage.IsFinal() {
		intakeDuration.Observe(time.Since(r.started).Seconds())
	}
}

// Preview scores the slots with the same scorer the commit path uses. Nothing is stored.
func (uc *IntakeUseCase) Preview(ctx context.Context, input *ScoreInput) (*model.Scorecard, error) {
	if _, err := requireRole(ctx, types.RoleRiskOwner); err != nil {
		return nil, err
	}
	if err := input.validate(uc.config); err != nil {
		return nil, goerr.Wrap(err, "preview rejected")
	}
	return uc.scorer.Score(input.Primary.toAssessment(), input.secondaryAssessments()), nil
}

// Submit validates, scores, identifies and persists a risk report. When the session has a
// merge selection the new report consolidates the selected reports in the same transaction
// and the selection is cleared afterwards.
func (uc *IntakeUseCase) Submit(ctx context.Context, input *SubmitInput) (*model.RiskReport, error) {
	user, err := requireRole(ctx, types.RoleRiskOwner)
	if err != nil {
		return nil, err
	}
	if uc.storage == nil {
		return nil, goerr.New("attachment storage is not configured")
	}

	ctx = logging.With(ctx, logging.From(ctx).With("session_id", input.SessionID, "reporter", user.ID))
	run := uc.newRun(ctx)

	reject := func(err error) (*model.RiskReport, error) {
		run.enter(types.IntakeStageRejected)
		submissionsTotal.WithLabelValues(resultRejected).Inc()
		return nil, goerr.Wrap(err, "risk report rejected")
	}
	rollback := func(err error) (*model.RiskReport, error) {
		run.enter(types.IntakeStageRolledBack)
		submissionsTotal.WithLabelValues(resultRolledBack).Inc()
		return nil, err
	}

	run.enter(types.IntakeStageValidating)
	department := input.Department
	if department == "" {
		department = user.Department
	}
	initial, err := uc.validate(input, department)
	if err != nil {
		return reject(err)
	}

	// empty or oversized documents are only detected once their bytes are read
	staged, err := uc.stage(ctx, input.Attachments)
	if err != nil {
		uc.discard(ctx, staged)
		var verr *ValidationError
		if errors.As(err, &verr) {
			return reject(err)
		}
		errutil.Handle(ctx, err, "failed to stage attachments")
		return rollback(goerr.Wrap(ErrPersistence, "failed to store attachments"))
	}

	run.enter(types.IntakeStageScoring)
	card := uc.scorer.Score(input.Primary.toAssessment(), input.secondaryAssessments())

	run.enter(types.IntakeStageIdentifying)
	now := uc.clock()
	commit, err := uc.identify(ctx, input.SessionID, initial, now)
	if err != nil {
		uc.discard(ctx, staged)
		var verr *ValidationError
		if errors.As(err, &verr) {
			return reject(err)
		}
		return rollback(err)
	}

	report := commit.Report
	report.Department = department
	report.Description = strings.TrimSpace(input.Description)
	report.Treatment = strings.TrimSpace(input.Treatment)
	report.Causes = model.NewCauses(input.Causes)
	report.Status = types.ReportStatusOpen
	report.ReporterID = user.ID
	report.CreatedAt = now
	report.UpdatedAt = now
	report.ApplyScorecard(card)

	run.enter(types.IntakeStagePersisting)
	for _, f := range staged {
		attachment := f.ToAttachment()
		attachment.CreatedAt = now
		report.Attachments = append(report.Attachments, attachment)
	}

	created, err := uc.repo.Report().Commit(ctx, commit)
	if err != nil {
		uc.discard(ctx, staged)
		errutil.Handle(ctx, err, "failed to commit risk report")
		if commit.IsMerge() && errors.Is(err, interfaces.ErrConflict) {
			return rollback(goerr.Wrap(ErrNotMergeEligible, "merge sources changed before commit",
				goerr.V(SessionIDKey, input.SessionID)))
		}
		return rollback(goerr.Wrap(ErrPersistence, "failed to commit risk report"))
	}

	ctx = logging.With(ctx, logging.From(ctx).With("risk_id", created.RiskID))
	run.ctx = ctx
	run.enter(types.IntakeStageCommitted)
	submissionsTotal.WithLabelValues(resultCommitted).Inc()

	uc.promote(ctx, staged)

	if commit.IsMerge() {
		mergesTotal.Inc()
		if err := uc.repo.MergeSelection().Delete(ctx, input.SessionID); err != nil {
			errutil.Handle(ctx, err, "failed to clear merge selection")
		}
	}

	if uc.notifier != nil {
		notified := created.Copy()
		uc.dispatcher.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.NotifyReport(ctx, notified)
		})
	}

	return created, nil
}

// validate checks every user-correctable field and returns the department initial
func (uc *IntakeUseCase) validate(input *SubmitInput, department string) (string, error) {
	if strings.TrimSpace(input.Description) == "" {
		return "", newValidationError("description", "description is required")
	}

	for taxonomy := range input.Causes {
		if !taxonomy.IsValid() {
			return "", newValidationError("causes", "unknown cause taxonomy %q", taxonomy)
		}
	}
	if model.NewCauses(input.Causes).Count() == 0 {
		return "", newValidationError("causes", "at least one cause is required")
	}

	if err := input.ScoreInput.validate(uc.config); err != nil {
		return "", err
	}

	if len(input.Attachments) == 0 {
		return "", newValidationError("attachments", "at least one attachment is required")
	}
	policy := uc.config.Attachment
	for _, a := range input.Attachments {
		if !policy.Allows(a.Name) {
			return "", newValidationError("attachments", "file type of %q is not allowed", a.Name)
		}
		if a.Size > policy.Limit() {
			return "", newValidationError("attachments", "%q exceeds the %d byte limit", a.Name, policy.Limit())
		}
		if a.Content == nil {
			return "", newValidationError("attachments", "%q has no content", a.Name)
		}
	}

	initial, ok := uc.config.DepartmentInitial(department)
	if !ok {
		return "", newValidationError("department", "unknown department %q", department)
	}

	return initial, nil
}

// identify builds the commit skeleton: a sequence key for a new risk chain, or the merged
// identifier and consolidation list when the session is merging. Merge products are still
// counted under the department and month they are submitted in.
func (uc *IntakeUseCase) identify(ctx context.Context, sessionID, initial string, now time.Time) (*model.ReportCommit, error) {
	key := model.SequenceKey{DepartmentInitial: initial, Year: now.Year(), Month: int(now.Month())}
	if err := key.Validate(); err != nil {
		return nil, newValidationError("department", "department initial %q cannot form a risk identifier", initial)
	}

	selection, err := activeSelection(ctx, uc.repo, sessionID, now)
	if err != nil {
		errutil.Handle(ctx, err, "failed to load merge selection")
		return nil, goerr.Wrap(ErrPersistence, "failed to load merge selection")
	}

	if selection == nil {
		return &model.ReportCommit{Report: &model.RiskReport{}, Sequence: key}, nil
	}

	if len(selection.ReportIDs) < 2 {
		return nil, goerr.Wrap(ErrInsufficientMergeSources, "merge selection is too small",
			goerr.V(SessionIDKey, sessionID))
	}

	sources := make([]model.RiskID, 0, len(selection.ReportIDs))
	for _, id := range selection.ReportIDs {
		report, err := uc.repo.Report().Get(ctx, id)
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, newIdentifierError("merge", "merge source %d no longer exists", id)
		}
		if err != nil {
			errutil.Handle(ctx, err, "failed to load merge source")
			return nil, goerr.Wrap(ErrPersistence, "failed to load merge source", goerr.V(ReportIDKey, id))
		}
		if !report.IsMergeEligible() {
			return nil, goerr.Wrap(ErrNotMergeEligible, "merge source is not eligible",
				goerr.V(ReportIDKey, id), goerr.V(RiskIDKey, report.RiskID))
		}
		sources = append(sources, report.RiskID)
	}

	mergedID, err := model.MergedRiskID(sources)
	if err != nil {
		return nil, newIdentifierError("merge", "merge source identifier is malformed")
	}

	return &model.ReportCommit{
		Report:         &model.RiskReport{RiskID: mergedID},
		Sequence:       key,
		ConsolidateIDs: slices.Clone(selection.ReportIDs),
	}, nil
}

// stage writes every attachment to the staging area concurrently. The files staged before a
// failure are returned together with the error so the caller can discard them.
func (uc *IntakeUseCase) stage(ctx context.Context, files []AttachmentInput) ([]*model.StagedFile, error) {
	limit := uc.config.Attachment.Limit()
	staged := make([]*model.StagedFile, len(files))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, f := range files {
		eg.Go(func() error {
			file, err := uc.storage.Stage(egCtx, f.Name, io.LimitReader(f.Content, limit+1))
			if errors.Is(err, interfaces.ErrEmptyAttachment) {
				return newValidationError("attachments", "%q is empty", f.Name)
			}
			if err != nil {
				return goerr.Wrap(err, "failed to stage attachment", goerr.V("name", f.Name))
			}
			staged[i] = file
			if file.Size > limit {
				return newValidationError("attachments", "%q exceeds the %d byte limit", f.Name, limit)
			}
			return nil
		})
	}
	err := eg.Wait()

	return slices.DeleteFunc(staged, func(f *model.StagedFile) bool { return f == nil }), err
}

// promote moves committed attachments to their stored paths. The report is already committed,
// so failures leave the staged copy in place for operators and are only reported.
func (uc *IntakeUseCase) promote(ctx context.Context, files []*model.StagedFile) {
	var eg errgroup.Group
	for _, f := range files {
		eg.Go(func() error {
			if err := uc.storage.Promote(ctx, f); err != nil {
				errutil.Handle(ctx, goerr.Wrap(err, "failed to promote attachment",
					goerr.V("staging_path", f.StagingPath), goerr.V("stored_path", f.StoredPath)),
					"attachment left in staging")
			}
			return nil
		})
	}
	_ = eg.Wait()
}

func (uc *IntakeUseCase) discard(ctx context.Context, files []*model.StagedFile) {
	for _, f := range files {
		if err := uc.storage.Discard(ctx, f); err != nil {
			errutil.Handle(ctx, goerr.Wrap(err, "failed to discard staged attachment",
				goerr.V("staging_path", f.StagingPath)), "orphaned staged attachment")
		}
	}
}

// activeSelection returns the live merge selection of the session, or nil
func activeSelection(ctx context.Context, repo interfaces.Repository, sessionID string, now time.Time) (*model.MergeSelection, error) {
	if sessionID == "" {
		return nil, nil
	}
	selection, err := repo.MergeSelection().Get(ctx, sessionID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get merge selection", goerr.V(SessionIDKey, sessionID))
	}
	if selection.IsExpired(now) {
		return nil, nil
	}
	return selection, nil
}
