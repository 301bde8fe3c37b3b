package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

type reportRepository struct {
	mu               sync.RWMutex
	reports          map[int64]*model.RiskReport
	sequences        map[model.SequenceKey]int
	nextID           int64
	nextAttachmentID int64
}

func newReportRepository() *reportRepository {
	return &reportRepository{
		reports:          make(map[int64]*model.RiskReport),
		sequences:        make(map[model.SequenceKey]int),
		nextID:           1,
		nextAttachmentID: 1,
	}
}

// Commit holds the write lock for the whole unit, so sequence allocation, insert and
// consolidation are observed atomically by concurrent callers.
func (r *reportRepository) Commit(ctx context.Context, commit *model.ReportCommit) (*model.RiskReport, error) {
	if commit == nil || commit.Report == nil {
		return nil, goerr.New("report is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range commit.ConsolidateIDs {
		src, exists := r.reports[id]
		if !exists {
			return nil, goerr.Wrap(interfaces.ErrConflict, "merge source not found", goerr.V("id", id))
		}
		if !src.IsMergeEligible() {
			return nil, goerr.Wrap(interfaces.ErrConflict, "merge source is not merge eligible",
				goerr.V("id", id), goerr.V("risk_id", src.RiskID), goerr.V("status", src.Status))
		}
	}

	created := commit.Report.Copy()
	if err := commit.Sequence.Validate(); err != nil {
		if created.RiskID == "" {
			return nil, goerr.Wrap(err, "invalid sequence key")
		}
	} else {
		seq, ok := r.sequences[commit.Sequence]
		if !ok {
			seq = r.countSequence(commit.Sequence)
		}
		seq++
		r.sequences[commit.Sequence] = seq
		if created.RiskID == "" {
			created.RiskID = commit.Sequence.RiskID(seq)
		}
		created.Sequence = commit.Sequence
	}

	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	committedAt := created.CreatedAt
	created.UpdatedAt = committedAt
	created.ID = r.nextID
	r.nextID++
	if created.Status == "" {
		created.Status = types.ReportStatusOpen
	}
	for i := range created.Attachments {
		created.Attachments[i].ID = r.nextAttachmentID
		created.Attachments[i].CreatedAt = committedAt
		r.nextAttachmentID++
	}
	r.reports[created.ID] = created

	for _, id := range commit.ConsolidateIDs {
		r.reports[id].Status = types.ReportStatusConsolidated
		r.reports[id].UpdatedAt = committedAt
	}

	return created.Copy(), nil
}

// countSequence counts reports already counted under the key, merge products included.
// Caller holds the lock.
func (r *reportRepository) countSequence(key model.SequenceKey) int {
	count := 0
	for _, report := range r.reports {
		if k, ok := report.CountedUnder(); ok && k == key {
			count++
		}
	}
	return count
}

func (r *reportRepository) Get(ctx context.Context, id int64) (*model.RiskReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, exists := r.reports[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "report not found", goerr.V("id", id))
	}

	// Return a copy to prevent external modification
	return report.Copy(), nil
}

func (r *reportRepository) List(ctx context.Context, filter *model.ReportFilter) ([]*model.RiskReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reports := make([]*model.RiskReport, 0, len(r.reports))
	for _, report := range r.reports {
		if !filter.Match(report) {
			continue
		}
		reports = append(reports, report.Copy())
	}
	model.SortReportsByRecency(reports)

	return reports, nil
}

func (r *reportRepository) Update(ctx context.Context, report *model.RiskReport) (*model.RiskReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.reports[report.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "report not found", goerr.V("id", report.ID))
	}

	if existing.Status.IsTerminal() {
		return nil, goerr.Wrap(interfaces.ErrConflict, "report is consolidated", goerr.V("id", report.ID))
	}

	updated := existing.Copy()
	applyMutableFields(updated, report)
	updated.UpdatedAt = time.Now().UTC()

	r.reports[updated.ID] = updated
	return updated.Copy(), nil
}

func applyMutableFields(dst, src *model.RiskReport) {
	dst.Status = src.Status
	dst.OwnerID = src.OwnerID
	dst.Treatment = src.Treatment
	dst.Assessments = slices.Clone(src.Assessments)
	dst.Inherent = src.Inherent
	dst.Residual = src.Residual
}
