package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/secmon-lab/riskreg/pkg/usecase"
)

const testSession = "session-1"

// seedReports submits n reports for the owner's department and returns them in order
func seedReports(t *testing.T, f *fixture, n int) []*model.RiskReport {
	t.Helper()
	reports := make([]*model.RiskReport, 0, n)
	for range n {
		reports = append(reports, submit(t, f, ownerCtx(), validInput()))
	}
	return reports
}

func TestMerge_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()
	seeded := seedReports(t, f, 3)
	a, b := seeded[0], seeded[2]

	selection, err := f.uc.Merge.Select(ctx, testSession, []int64{a.ID, b.ID})
	gt.NoError(t, err).Required()
	gt.Value(t, selection.RiskIDs).Equal([]model.RiskID{a.RiskID, b.RiskID})
	gt.Value(t, selection.ExpiresAt).Equal(fixedNow.Add(model.DefaultMergeSelectionTTL))

	input := validInput()
	input.SessionID = testSession
	merged := submit(t, f, ctx, input)

	gt.Value(t, merged.RiskID).Equal(model.RiskID(riskID("AM", 1).String() + "/3"))
	gt.Bool(t, merged.RiskID.IsMerged()).True()
	gt.Bool(t, merged.IsMergeEligible()).False()

	for _, src := range []*model.RiskReport{a, b} {
		got, err := f.repo.Report().Get(context.Background(), src.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.ReportStatusConsolidated)
	}
	untouched, err := f.repo.Report().Get(context.Background(), seeded[1].ID)
	gt.NoError(t, err).Required()
	gt.Value(t, untouched.Status).Equal(types.ReportStatusOpen)

	// selection is cleared so the next submission is a plain one
	current, err := f.uc.Merge.Get(ctx, testSession)
	gt.NoError(t, err).Required()
	gt.Value(t, current).Nil()

	// three seeded reports plus the merge product already exist this month
	next := submit(t, f, ctx, input)
	gt.Value(t, next.RiskID).Equal(riskID("AM", 5))
}

func TestMerge_ProductCountsTowardNextSequence(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()
	seeded := seedReports(t, f, 2)

	_, err := f.uc.Merge.Select(ctx, testSession, []int64{seeded[0].ID, seeded[1].ID})
	gt.NoError(t, err).Required()

	input := validInput()
	input.SessionID = testSession
	merged := submit(t, f, ctx, input)
	gt.Value(t, merged.RiskID).Equal(model.RiskID(riskID("AM", 1).String() + "/2"))

	next := submit(t, f, ctx, validInput())
	gt.Value(t, next.RiskID).Equal(riskID("AM", 4))

	other := validInput()
	other.Department = "Finance"
	finance := submit(t, f, ctx, other)
	gt.Value(t, finance.RiskID).Equal(riskID("FN", 1))
}

func TestMerge_SelectRules(t *testing.T) {
	t.Run("needs two distinct reports", func(t *testing.T) {
		f := newFixture(t)
		seeded := seedReports(t, f, 1)

		_, err := f.uc.Merge.Select(ownerCtx(), testSession, []int64{seeded[0].ID, seeded[0].ID})
		gt.Error(t, err).Is(usecase.ErrInsufficientMergeSources)
	})

	t.Run("missing report", func(t *testing.T) {
		f := newFixture(t)
		seeded := seedReports(t, f, 1)

		_, err := f.uc.Merge.Select(ownerCtx(), testSession, []int64{seeded[0].ID, 999})
		gt.Error(t, err).Is(usecase.ErrReportNotFound)
	})

	t.Run("consolidated report is not eligible", func(t *testing.T) {
		f := newFixture(t)
		ctx := ownerCtx()
		seeded := seedReports(t, f, 3)

		_, err := f.uc.Merge.Select(ctx, testSession, []int64{seeded[0].ID, seeded[1].ID})
		gt.NoError(t, err).Required()
		input := validInput()
		input.SessionID = testSession
		merged := submit(t, f, ctx, input)

		_, err = f.uc.Merge.Select(ctx, testSession, []int64{seeded[0].ID, seeded[2].ID})
		gt.Error(t, err).Is(usecase.ErrNotMergeEligible)

		_, err = f.uc.Merge.Select(ctx, testSession, []int64{merged.ID, seeded[2].ID})
		gt.Error(t, err).Is(usecase.ErrNotMergeEligible)
	})

	t.Run("other department", func(t *testing.T) {
		f := newFixture(t)
		seeded := seedReports(t, f, 2)
		ctx := userCtx("U002", "Finance", types.RoleRiskOwner)

		_, err := f.uc.Merge.Select(ctx, testSession, []int64{seeded[0].ID, seeded[1].ID})
		gt.Error(t, err).Is(usecase.ErrAccessDenied)
	})

	t.Run("session required", func(t *testing.T) {
		f := newFixture(t)
		seeded := seedReports(t, f, 2)

		_, err := f.uc.Merge.Select(ownerCtx(), "", []int64{seeded[0].ID, seeded[1].ID})
		gt.Error(t, err).Is(usecase.ErrValidation)
	})
}

func TestMerge_Cancel(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()
	seeded := seedReports(t, f, 2)

	_, err := f.uc.Merge.Select(ctx, testSession, []int64{seeded[0].ID, seeded[1].ID})
	gt.NoError(t, err).Required()
	gt.NoError(t, f.uc.Merge.Cancel(ctx, testSession)).Required()

	current, err := f.uc.Merge.Get(ctx, testSession)
	gt.NoError(t, err).Required()
	gt.Value(t, current).Nil()

	input := validInput()
	input.SessionID = testSession
	report := submit(t, f, ctx, input)
	gt.Bool(t, report.RiskID.IsMerged()).False()
}

func TestMerge_SourceConsolidatedAfterSelection(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()
	seeded := seedReports(t, f, 3)

	// two sessions select overlapping sources; the second commit loses
	_, err := f.uc.Merge.Select(ctx, "session-a", []int64{seeded[0].ID, seeded[1].ID})
	gt.NoError(t, err).Required()
	_, err = f.uc.Merge.Select(ctx, "session-b", []int64{seeded[1].ID, seeded[2].ID})
	gt.NoError(t, err).Required()

	input := validInput()
	input.SessionID = "session-a"
	submit(t, f, ctx, input)

	input = validInput()
	input.SessionID = "session-b"
	_, err = f.uc.Intake.Submit(ctx, input)
	gt.Error(t, err).Is(usecase.ErrNotMergeEligible)
	gt.Value(t, f.stages.Last()).Equal(types.IntakeStageRolledBack)

	got, err := f.repo.Report().Get(context.Background(), seeded[2].ID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.Status).Equal(types.ReportStatusOpen)
	gt.Array(t, f.stagedFiles(t)).Length(0)
}
