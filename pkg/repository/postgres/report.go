package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

const reportColumns = `id, risk_id, sequence_key, department, description, treatment,
	categories, likelihood, impact, rating, level, residual,
	assessments, inherent, residual_score, causes, status, reporter_id, owner_id,
	created_at, updated_at`

type reportRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(s rowScanner) (*model.RiskReport, error) {
	var row reportRow
	var createdAt, updatedAt time.Time
	if err := s.Scan(
		&row.ID, &row.RiskID, &row.SequenceKey, &row.Department, &row.Description, &row.Treatment,
		&row.Categories, &row.Likelihood, &row.Impact, &row.Rating, &row.Level, &row.Residual,
		&row.Assessments, &row.Inherent, &row.ResidualScore, &row.Causes, &row.Status, &row.ReporterID, &row.OwnerID,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	report, err := decodeReport(&row)
	if err != nil {
		return nil, err
	}
	report.CreatedAt = createdAt.UTC()
	report.UpdatedAt = updatedAt.UTC()
	return report, nil
}

// Commit inserts the report, its attachments, the sequence allocation and the consolidation
// of merge sources in one transaction. Sources are locked with FOR UPDATE before the check.
func (r *reportRepository) Commit(ctx context.Context, commit *model.ReportCommit) (*model.RiskReport, error) {
	if commit == nil || commit.Report == nil {
		return nil, goerr.New("report is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockMergeSources(ctx, tx, commit.ConsolidateIDs); err != nil {
		return nil, err
	}

	created := commit.Report.Copy()
	if err := commit.Sequence.Validate(); err != nil {
		if created.RiskID == "" {
			return nil, goerr.Wrap(err, "invalid sequence key")
		}
	} else {
		seq, err := nextSequenceTx(ctx, tx, commit.Sequence)
		if err != nil {
			return nil, err
		}
		if created.RiskID == "" {
			created.RiskID = commit.Sequence.RiskID(int(seq))
		}
		created.Sequence = commit.Sequence
	}

	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	now := created.CreatedAt
	if created.Status == "" {
		created.Status = types.ReportStatusOpen
	}
	created.UpdatedAt = now

	row, err := encodeReport(created)
	if err != nil {
		return nil, err
	}

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO risk_reports (risk_id, sequence_key, department, description, treatment,
			categories, likelihood, impact, rating, level, residual,
			assessments, inherent, residual_score, causes, status, reporter_id, owner_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
		RETURNING id`,
		row.RiskID, row.SequenceKey, row.Department, row.Description, row.Treatment,
		row.Categories, row.Likelihood, row.Impact, row.Rating, row.Level, row.Residual,
		string(row.Assessments), string(row.Inherent), string(row.ResidualScore), string(row.Causes), row.Status, row.ReporterID, row.OwnerID,
		now,
	).Scan(&created.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, goerr.Wrap(interfaces.ErrConflict, "risk identifier already exists", goerr.V("risk_id", row.RiskID))
		}
		return nil, goerr.Wrap(err, "failed to insert report", goerr.V("risk_id", row.RiskID))
	}

	for i := range created.Attachments {
		att := &created.Attachments[i]
		att.CreatedAt = now
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO risk_attachments (report_id, original_name, stored_path, size, mime_type, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			created.ID, att.OriginalName, att.StoredPath, att.Size, att.MIMEType, now,
		).Scan(&att.ID); err != nil {
			return nil, goerr.Wrap(err, "failed to insert attachment",
				goerr.V("report_id", created.ID), goerr.V("name", att.OriginalName))
		}
	}

	if len(commit.ConsolidateIDs) > 0 {
		res, err := tx.ExecContext(ctx, `
			UPDATE risk_reports SET status = $1, updated_at = $2
			WHERE id = ANY($3) AND status <> $1`,
			types.ReportStatusConsolidated.String(), now, pq.Array(commit.ConsolidateIDs))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to consolidate merge sources")
		}
		if affected, _ := res.RowsAffected(); affected != int64(len(commit.ConsolidateIDs)) {
			return nil, goerr.Wrap(interfaces.ErrConflict, "merge sources changed during commit",
				goerr.V("expected", len(commit.ConsolidateIDs)), goerr.V("affected", affected))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, goerr.Wrap(err, "failed to commit transaction")
	}
	committed = true

	return created, nil
}

func lockMergeSources(ctx context.Context, tx *sql.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, risk_id, status FROM risk_reports
		WHERE id = ANY($1)
		FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return goerr.Wrap(err, "failed to lock merge sources")
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		var riskID, status string
		if err := rows.Scan(&id, &riskID, &status); err != nil {
			return goerr.Wrap(err, "failed to scan merge source")
		}
		src := &model.RiskReport{ID: id, RiskID: model.RiskID(riskID), Status: decodeStatus(status)}
		if !src.IsMergeEligible() {
			return goerr.Wrap(interfaces.ErrConflict, "merge source is not merge eligible",
				goerr.V("id", id), goerr.V("risk_id", riskID), goerr.V("status", status))
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return goerr.Wrap(err, "failed to iterate merge sources")
	}

	for _, id := range ids {
		if !found[id] {
			return goerr.Wrap(interfaces.ErrConflict, "merge source not found", goerr.V("id", id))
		}
	}
	return nil
}

// nextSequenceTx increments the counter for key. A missing counter is seeded from the
// number of reports already counted under the key, merge products included, so N stays
// count+1 for existing data. Rows written before sequence_key existed match on their prefix.
func nextSequenceTx(ctx context.Context, tx *sql.Tx, key model.SequenceKey) (int64, error) {
	var seq int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO risk_sequences (key, seq)
		VALUES ($1, (SELECT COUNT(*) FROM risk_reports
			WHERE sequence_key = $1 OR (sequence_key IS NULL AND risk_id LIKE $2)) + 1)
		ON CONFLICT (key)
		DO UPDATE SET seq = risk_sequences.seq + 1
		RETURNING seq`, key.String(), key.Prefix()+"%").Scan(&seq); err != nil {
		return 0, goerr.Wrap(err, "failed to allocate sequence number", goerr.V("key", key.String()))
	}
	return seq, nil
}

func (r *reportRepository) Get(ctx context.Context, id int64) (*model.RiskReport, error) {
	report, err := scanReport(r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM risk_reports WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "report not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get report", goerr.V("id", id))
	}

	if err := r.loadAttachments(ctx, []*model.RiskReport{report}); err != nil {
		return nil, err
	}
	return report, nil
}

// List narrows by department and excluded ids in SQL. Primary category, status and merge
// eligibility are matched after decoding, since older rows need the categories column un-nested.
func (r *reportRepository) List(ctx context.Context, filter *model.ReportFilter) ([]*model.RiskReport, error) {
	var department string
	var exclude []int64
	if filter != nil {
		department = filter.Department
		exclude = filter.ExcludeIDs
	}
	if exclude == nil {
		exclude = []int64{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reportColumns+` FROM risk_reports
		WHERE ($1 = '' OR department = $1)
		  AND NOT (id = ANY($2))
		ORDER BY created_at DESC, id DESC`,
		department, pq.Array(exclude))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list reports")
	}
	defer rows.Close()

	var reports []*model.RiskReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan report")
		}
		if !filter.Match(report) {
			continue
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate reports")
	}

	if err := r.loadAttachments(ctx, reports); err != nil {
		return nil, err
	}
	model.SortReportsByRecency(reports)
	return reports, nil
}

func (r *reportRepository) loadAttachments(ctx context.Context, reports []*model.RiskReport) error {
	if len(reports) == 0 {
		return nil
	}

	byID := make(map[int64]*model.RiskReport, len(reports))
	ids := make([]int64, 0, len(reports))
	for _, report := range reports {
		byID[report.ID] = report
		ids = append(ids, report.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, report_id, original_name, stored_path, size, mime_type, created_at
		FROM risk_attachments
		WHERE report_id = ANY($1)
		ORDER BY id`, pq.Array(ids))
	if err != nil {
		return goerr.Wrap(err, "failed to list attachments")
	}
	defer rows.Close()

	for rows.Next() {
		var reportID int64
		var att model.Attachment
		if err := rows.Scan(&att.ID, &reportID, &att.OriginalName, &att.StoredPath, &att.Size, &att.MIMEType, &att.CreatedAt); err != nil {
			return goerr.Wrap(err, "failed to scan attachment")
		}
		att.CreatedAt = att.CreatedAt.UTC()
		if report, ok := byID[reportID]; ok {
			report.Attachments = append(report.Attachments, att)
		}
	}
	if err := rows.Err(); err != nil {
		return goerr.Wrap(err, "failed to iterate attachments")
	}
	return nil
}

func (r *reportRepository) Update(ctx context.Context, report *model.RiskReport) (*model.RiskReport, error) {
	existing, err := r.Get(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	if existing.Status.IsTerminal() {
		return nil, goerr.Wrap(interfaces.ErrConflict, "report is consolidated", goerr.V("id", report.ID))
	}

	existing.Status = report.Status
	existing.OwnerID = report.OwnerID
	existing.Treatment = report.Treatment
	existing.Assessments = report.Assessments
	existing.Inherent = report.Inherent
	existing.Residual = report.Residual
	existing.UpdatedAt = time.Now().UTC()

	row, err := encodeReport(existing)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE risk_reports SET status = $1, owner_id = $2, treatment = $3,
			categories = $4, likelihood = $5, impact = $6, rating = $7, level = $8, residual = $9,
			assessments = $10, inherent = $11, residual_score = $12, updated_at = $13
		WHERE id = $14 AND status <> $15`,
		row.Status, row.OwnerID, row.Treatment,
		row.Categories, row.Likelihood, row.Impact, row.Rating, row.Level, row.Residual,
		string(row.Assessments), string(row.Inherent), string(row.ResidualScore), existing.UpdatedAt,
		existing.ID, string(types.ReportStatusConsolidated))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update report", goerr.V("id", report.ID))
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, goerr.Wrap(interfaces.ErrConflict, "report was consolidated concurrently", goerr.V("id", report.ID))
	}

	return existing, nil
}
