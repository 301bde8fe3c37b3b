package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/secmon-lab/riskreg/pkg/repository/firestore"
	"github.com/secmon-lab/riskreg/pkg/repository/memory"
	"github.com/secmon-lab/riskreg/pkg/repository/postgres"
)

// uniqueInitial returns a department initial that no other test run uses, so shared
// databases do not leak sequence counters or listings between runs.
func uniqueInitial() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func newReport(department string, category types.Category, l types.Likelihood, i types.Impact) *model.RiskReport {
	card := model.NewScorer().Score(model.Assessment{Category: category, Likelihood: l, Impact: i}, nil)
	r := &model.RiskReport{
		Department:  department,
		Description: "Invoices approved without a second signature",
		Causes:      model.NewCauses(map[types.CauseTaxonomy][]string{types.CauseTaxonomyProcess: {"missing review"}}),
		ReporterID:  "user-1",
		Attachments: []model.Attachment{
			{OriginalName: "evidence.pdf", StoredPath: "reports/evidence.pdf", Size: 128, MIMEType: "application/pdf"},
		},
	}
	r.ApplyScorecard(card)
	return r
}

func commitNew(t *testing.T, repo interfaces.Repository, key model.SequenceKey, category types.Category) *model.RiskReport {
	t.Helper()
	created, err := repo.Report().Commit(context.Background(), &model.ReportCommit{
		Report:   newReport(key.DepartmentInitial, category, 2, 3),
		Sequence: key,
	})
	gt.NoError(t, err).Required()
	return created
}

func runReportRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Commit allocates sequential identifiers per department and month", func(t *testing.T) {
		repo := newRepo(t)
		initial := uniqueInitial()
		oct := model.SequenceKey{DepartmentInitial: initial, Year: 2025, Month: 10}
		nov := model.SequenceKey{DepartmentInitial: initial, Year: 2025, Month: 11}

		r1 := commitNew(t, repo, oct, "Fraud")
		r2 := commitNew(t, repo, oct, "Fraud")
		r3 := commitNew(t, repo, nov, "Fraud")

		gt.Value(t, r1.RiskID).Equal(model.RiskID(initial + "/2025/10/1"))
		gt.Value(t, r2.RiskID).Equal(model.RiskID(initial + "/2025/10/2"))
		gt.Value(t, r3.RiskID).Equal(model.RiskID(initial + "/2025/11/1"))
		gt.Value(t, r1.ID).NotEqual(r2.ID)
	})

	t.Run("Commit fills store-assigned fields", func(t *testing.T) {
		repo := newRepo(t)
		key := model.SequenceKey{DepartmentInitial: uniqueInitial(), Year: 2025, Month: 10}

		created := commitNew(t, repo, key, "Fraud")
		gt.Value(t, created.ID).NotEqual(int64(0))
		gt.Value(t, created.Status).Equal(types.ReportStatusOpen)
		gt.Bool(t, created.CreatedAt.IsZero()).False()
		gt.Array(t, created.Attachments).Length(1).Required()
		gt.Value(t, created.Attachments[0].ID).NotEqual(int64(0))

		got, err := repo.Report().Get(context.Background(), created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.RiskID).Equal(created.RiskID)
		gt.Value(t, got.PrimaryCategory()).Equal(types.Category("Fraud"))
		gt.Value(t, got.Inherent).Equal(created.Inherent)
		gt.Array(t, got.Attachments).Length(1)
		gt.Array(t, got.Causes[types.CauseTaxonomyProcess]).Equal([]string{"missing review"})
	})

	t.Run("Commit keeps a preset identifier", func(t *testing.T) {
		repo := newRepo(t)
		initial := uniqueInitial()
		report := newReport(initial, "Fraud", 1, 1)
		report.RiskID = model.RiskID(initial + "/2025/10/5/9")

		created, err := repo.Report().Commit(context.Background(), &model.ReportCommit{Report: report})
		gt.NoError(t, err).Required()
		gt.Value(t, created.RiskID).Equal(report.RiskID)
		gt.Bool(t, created.IsMergeEligible()).False()
	})

	t.Run("Merge commit counts toward the department month sequence", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		key := model.SequenceKey{DepartmentInitial: uniqueInitial(), Year: 2025, Month: 10}
		src1 := commitNew(t, repo, key, "Fraud")
		src2 := commitNew(t, repo, key, "Fraud")

		mergedID, err := model.MergedRiskID([]model.RiskID{src1.RiskID, src2.RiskID})
		gt.NoError(t, err).Required()
		merged := newReport(key.DepartmentInitial, "Fraud", 4, 4)
		merged.RiskID = mergedID

		created, err := repo.Report().Commit(ctx, &model.ReportCommit{
			Report:         merged,
			Sequence:       key,
			ConsolidateIDs: []int64{src1.ID, src2.ID},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created.RiskID).Equal(mergedID)
		gt.Value(t, created.Sequence).Equal(key)

		got, err := repo.Report().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Sequence).Equal(key)

		next := commitNew(t, repo, key, "Fraud")
		gt.Value(t, next.RiskID).Equal(key.RiskID(4))
	})

	t.Run("Sequence seed counts merge products", func(t *testing.T) {
		repo := newRepo(t)
		initial := uniqueInitial()
		report := newReport(initial, "Fraud", 1, 1)
		report.RiskID = model.RiskID(initial + "/2025/10/5/9")
		_, err := repo.Report().Commit(context.Background(), &model.ReportCommit{Report: report})
		gt.NoError(t, err).Required()

		key := model.SequenceKey{DepartmentInitial: initial, Year: 2025, Month: 10}
		next := commitNew(t, repo, key, "Fraud")
		gt.Value(t, next.RiskID).Equal(key.RiskID(2))
	})

	t.Run("Commit keeps the caller's creation time", func(t *testing.T) {
		repo := newRepo(t)
		key := model.SequenceKey{DepartmentInitial: uniqueInitial(), Year: 2025, Month: 10}
		at := time.Date(2025, 10, 31, 23, 59, 30, 0, time.UTC)

		report := newReport(key.DepartmentInitial, "Fraud", 2, 2)
		report.CreatedAt = at
		created, err := repo.Report().Commit(context.Background(), &model.ReportCommit{Report: report, Sequence: key})
		gt.NoError(t, err).Required()
		gt.Bool(t, created.CreatedAt.Equal(at)).True()
		gt.Bool(t, created.UpdatedAt.Equal(at)).True()

		got, err := repo.Report().Get(context.Background(), created.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, got.CreatedAt.Equal(at)).True()
		gt.Array(t, got.Attachments).Length(1).Required()
		gt.Bool(t, got.Attachments[0].CreatedAt.Equal(at)).True()
	})

	t.Run("Merge commit consolidates every source", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		key := model.SequenceKey{DepartmentInitial: uniqueInitial(), Year: 2025, Month: 10}
		src1 := commitNew(t, repo, key, "Fraud")
		src2 := commitNew(t, repo, key, "Fraud")

		mergedID, err := model.MergedRiskID([]model.RiskID{src1.RiskID, src2.RiskID})
		gt.NoError(t, err).Required()
		merged := newReport(key.DepartmentInitial, "Fraud", 4, 4)
		merged.RiskID = mergedID

		created, err := repo.Report().Commit(ctx, &model.ReportCommit{
			Report:         merged,
			ConsolidateIDs: []int64{src1.ID, src2.ID},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created.RiskID).Equal(mergedID)

		for _, id := range []int64{src1.ID, src2.ID} {
			got, err := repo.Report().Get(ctx, id)
			gt.NoError(t, err).Required()
			gt.Value(t, got.Status).Equal(types.ReportStatusConsolidated)
		}

		reopen := src1.Copy()
		reopen.Status = types.ReportStatusOpen
		_, err = repo.Report().Update(ctx, reopen)
		gt.Bool(t, errors.Is(err, interfaces.ErrConflict)).True()
	})

	t.Run("Merge commit with a consolidated source writes nothing", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		key := model.SequenceKey{DepartmentInitial: uniqueInitial(), Year: 2025, Month: 10}
		src1 := commitNew(t, repo, key, "Fraud")
		src2 := commitNew(t, repo, key, "Fraud")
		src3 := commitNew(t, repo, key, "Fraud")

		first := newReport(key.DepartmentInitial, "Fraud", 4, 4)
		first.RiskID = model.RiskID(fmt.Sprintf("%s/2025/10/1/2", key.DepartmentInitial))
		_, err := repo.Report().Commit(ctx, &model.ReportCommit{Report: first, ConsolidateIDs: []int64{src1.ID, src2.ID}})
		gt.NoError(t, err).Required()

		second := newReport(key.DepartmentInitial, "Fraud", 4, 4)
		second.RiskID = model.RiskID(fmt.Sprintf("%s/2025/10/2/3", key.DepartmentInitial))
		_, err = repo.Report().Commit(ctx, &model.ReportCommit{Report: second, ConsolidateIDs: []int64{src2.ID, src3.ID}})
		gt.Bool(t, errors.Is(err, interfaces.ErrConflict)).True()

		got, err := repo.Report().Get(ctx, src3.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.ReportStatusOpen)

		reports, err := repo.Report().List(ctx, &model.ReportFilter{Department: key.DepartmentInitial})
		gt.NoError(t, err).Required()
		gt.Array(t, reports).Length(4)
	})

	t.Run("Merge commit with a missing source is a conflict", func(t *testing.T) {
		repo := newRepo(t)
		key := model.SequenceKey{DepartmentInitial: uniqueInitial(), Year: 2025, Month: 10}
		src := commitNew(t, repo, key, "Fraud")

		report := newReport(key.DepartmentInitial, "Fraud", 1, 1)
		report.RiskID = model.RiskID(key.DepartmentInitial + "/2025/10/1/999")
		_, err := repo.Report().Commit(context.Background(), &model.ReportCommit{
			Report:         report,
			ConsolidateIDs: []int64{src.ID, 999999999},
		})
		gt.Bool(t, errors.Is(err, interfaces.ErrConflict)).True()
	})

	t.Run("Get returns ErrNotFound for unknown id", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Report().Get(context.Background(), 987654321)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})

	t.Run("List filters by primary category and orders most recent first", func(t *testing.T) {
		repo := newRepo(t)
		key := model.SequenceKey{DepartmentInitial: uniqueInitial(), Year: 2025, Month: 10}
		older := commitNew(t, repo, key, "Fraud")
		commitNew(t, repo, key, "Cyber")
		newer := commitNew(t, repo, key, "Fraud")

		reports, err := repo.Report().List(context.Background(), &model.ReportFilter{
			Department:      key.DepartmentInitial,
			PrimaryCategory: "Fraud",
		})
		gt.NoError(t, err).Required()
		gt.Array(t, reports).Length(2).Required()
		gt.Value(t, reports[0].ID).Equal(newer.ID)
		gt.Value(t, reports[1].ID).Equal(older.ID)
	})

	t.Run("List excludes ids and matches case-sensitively", func(t *testing.T) {
		repo := newRepo(t)
		key := model.SequenceKey{DepartmentInitial: uniqueInitial(), Year: 2025, Month: 10}
		excluded := commitNew(t, repo, key, "Fraud")
		kept := commitNew(t, repo, key, "Fraud")
		commitNew(t, repo, key, "fraud")

		reports, err := repo.Report().List(context.Background(), &model.ReportFilter{
			Department:      key.DepartmentInitial,
			PrimaryCategory: "Fraud",
			ExcludeIDs:      []int64{excluded.ID},
		})
		gt.NoError(t, err).Required()
		gt.Array(t, reports).Length(1).Required()
		gt.Value(t, reports[0].ID).Equal(kept.ID)
	})

	t.Run("List of merge eligible reports skips consolidated and merged reports", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		key := model.SequenceKey{DepartmentInitial: uniqueInitial(), Year: 2025, Month: 10}
		src1 := commitNew(t, repo, key, "Fraud")
		src2 := commitNew(t, repo, key, "Fraud")
		open := commitNew(t, repo, key, "Fraud")

		merged := newReport(key.DepartmentInitial, "Fraud", 2, 2)
		merged.RiskID = model.RiskID(key.DepartmentInitial + "/2025/10/1/2")
		_, err := repo.Report().Commit(ctx, &model.ReportCommit{Report: merged, ConsolidateIDs: []int64{src1.ID, src2.ID}})
		gt.NoError(t, err).Required()

		reports, err := repo.Report().List(ctx, &model.ReportFilter{
			Department:        key.DepartmentInitial,
			PrimaryCategory:   "Fraud",
			MergeEligibleOnly: true,
		})
		gt.NoError(t, err).Required()
		gt.Array(t, reports).Length(1).Required()
		gt.Value(t, reports[0].ID).Equal(open.ID)
	})

	t.Run("Update changes workflow fields only", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		key := model.SequenceKey{DepartmentInitial: uniqueInitial(), Year: 2025, Month: 10}
		created := commitNew(t, repo, key, "Fraud")

		change := created.Copy()
		change.Status = types.ReportStatusInProgress
		change.OwnerID = "owner-7"
		change.Description = "must not change"

		updated, err := repo.Report().Update(ctx, change)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Status).Equal(types.ReportStatusInProgress)
		gt.Value(t, updated.OwnerID).Equal("owner-7")
		gt.Value(t, updated.Description).Equal(created.Description)
		gt.Value(t, updated.RiskID).Equal(created.RiskID)

		_, err = repo.Report().Update(ctx, &model.RiskReport{ID: 987654321, Status: types.ReportStatusClosed})
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})

	t.Run("Concurrent commits never share an identifier", func(t *testing.T) {
		repo := newRepo(t)
		key := model.SequenceKey{DepartmentInitial: uniqueInitial(), Year: 2025, Month: 10}

		const n = 8
		var wg sync.WaitGroup
		ids := make([]model.RiskID, n)
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				created, err := repo.Report().Commit(context.Background(), &model.ReportCommit{
					Report:   newReport(key.DepartmentInitial, "Fraud", 1, 2),
					Sequence: key,
				})
				errs[i] = err
				if err == nil {
					ids[i] = created.RiskID
				}
			}(i)
		}
		wg.Wait()

		seen := make(map[model.RiskID]bool)
		for i := 0; i < n; i++ {
			gt.NoError(t, errs[i])
			gt.Bool(t, seen[ids[i]]).False()
			seen[ids[i]] = true
		}
	})
}

func runMergeSelectionRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put, Get and Delete", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Millisecond)
		selection := &model.MergeSelection{
			SessionID: uuid.NewString(),
			ReportIDs: []int64{3, 5},
			RiskIDs:   []model.RiskID{"AM/2025/10/3", "AM/2025/10/5"},
			CreatedAt: now,
			ExpiresAt: now.Add(model.DefaultMergeSelectionTTL),
		}
		gt.NoError(t, repo.MergeSelection().Put(ctx, selection)).Required()

		got, err := repo.MergeSelection().Get(ctx, selection.SessionID)
		gt.NoError(t, err).Required()
		gt.Array(t, got.ReportIDs).Equal([]int64{3, 5})
		gt.Array(t, got.RiskIDs).Equal(selection.RiskIDs)

		gt.NoError(t, repo.MergeSelection().Delete(ctx, selection.SessionID)).Required()
		_, err = repo.MergeSelection().Get(ctx, selection.SessionID)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()

		gt.NoError(t, repo.MergeSelection().Delete(ctx, selection.SessionID))
	})

	t.Run("Put replaces the previous selection", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()
		sessionID := uuid.NewString()

		for _, ids := range [][]int64{{1, 2}, {7, 8, 9}} {
			gt.NoError(t, repo.MergeSelection().Put(ctx, &model.MergeSelection{
				SessionID: sessionID,
				ReportIDs: ids,
				CreatedAt: now,
				ExpiresAt: now.Add(time.Minute),
			})).Required()
		}

		got, err := repo.MergeSelection().Get(ctx, sessionID)
		gt.NoError(t, err).Required()
		gt.Array(t, got.ReportIDs).Equal([]int64{7, 8, 9})
	})

	t.Run("Expired selection is not returned", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()
		sessionID := uuid.NewString()

		gt.NoError(t, repo.MergeSelection().Put(ctx, &model.MergeSelection{
			SessionID: sessionID,
			ReportIDs: []int64{1, 2},
			CreatedAt: now.Add(-time.Hour),
			ExpiresAt: now.Add(-time.Minute),
		})).Required()

		_, err := repo.MergeSelection().Get(ctx, sessionID)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	ctx := context.Background()
	// Collections are isolated per test through a random prefix
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func newPostgresRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	repo, err := postgres.New(ctx, dsn)
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.Migrate(ctx)).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func newMemoryRepository(t *testing.T) interfaces.Repository {
	return memory.New()
}

func TestMemoryReportRepository(t *testing.T) {
	runReportRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreReportRepository(t *testing.T) {
	runReportRepositoryTest(t, newFirestoreRepository)
}

func TestPostgresReportRepository(t *testing.T) {
	runReportRepositoryTest(t, newPostgresRepository)
}

func TestMemoryMergeSelectionRepository(t *testing.T) {
	runMergeSelectionRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreMergeSelectionRepository(t *testing.T) {
	runMergeSelectionRepositoryTest(t, newFirestoreRepository)
}

func TestPostgresMergeSelectionRepository(t *testing.T) {
	runMergeSelectionRepositoryTest(t, newPostgresRepository)
}
