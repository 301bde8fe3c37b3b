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
)

type mergeSelectionRepository struct {
	db *sql.DB
}

func (r *mergeSelectionRepository) Put(ctx context.Context, selection *model.MergeSelection) error {
	if selection == nil || selection.SessionID == "" {
		return goerr.New("session id is required")
	}

	riskIDs := make([]string, len(selection.RiskIDs))
	for i, id := range selection.RiskIDs {
		riskIDs[i] = id.String()
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO merge_selections (session_id, report_ids, risk_ids, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id)
		DO UPDATE SET report_ids = EXCLUDED.report_ids, risk_ids = EXCLUDED.risk_ids,
			created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`,
		selection.SessionID, pq.Array(selection.ReportIDs), pq.Array(riskIDs),
		selection.CreatedAt, selection.ExpiresAt); err != nil {
		return goerr.Wrap(err, "failed to put merge selection", goerr.V("session_id", selection.SessionID))
	}
	return nil
}

func (r *mergeSelectionRepository) Get(ctx context.Context, sessionID string) (*model.MergeSelection, error) {
	selection := &model.MergeSelection{SessionID: sessionID}
	var riskIDs []string
	err := r.db.QueryRowContext(ctx, `
		SELECT report_ids, risk_ids, created_at, expires_at
		FROM merge_selections
		WHERE session_id = $1 AND expires_at > $2`,
		sessionID, time.Now().UTC(),
	).Scan(pq.Array(&selection.ReportIDs), pq.Array(&riskIDs), &selection.CreatedAt, &selection.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "merge selection not found", goerr.V("session_id", sessionID))
		}
		return nil, goerr.Wrap(err, "failed to get merge selection", goerr.V("session_id", sessionID))
	}

	for _, id := range riskIDs {
		selection.RiskIDs = append(selection.RiskIDs, model.RiskID(id))
	}
	selection.CreatedAt = selection.CreatedAt.UTC()
	selection.ExpiresAt = selection.ExpiresAt.UTC()
	return selection, nil
}

func (r *mergeSelectionRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM merge_selections WHERE session_id = $1`, sessionID); err != nil {
		return goerr.Wrap(err, "failed to delete merge selection", goerr.V("session_id", sessionID))
	}
	return nil
}
