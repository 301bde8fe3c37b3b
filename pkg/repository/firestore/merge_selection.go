package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type mergeSelectionDocument struct {
	SessionID string    `firestore:"session_id"`
	ReportIDs []int64   `firestore:"report_ids"`
	RiskIDs   []string  `firestore:"risk_ids"`
	CreatedAt time.Time `firestore:"created_at"`
	ExpiresAt time.Time `firestore:"expires_at"`
}

type mergeSelectionRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newMergeSelectionRepository(client *firestore.Client) *mergeSelectionRepository {
	return &mergeSelectionRepository{
		client: client,
	}
}

func (r *mergeSelectionRepository) doc(sessionID string) *firestore.DocumentRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "merge_selections")).Doc(sessionID)
}

func (r *mergeSelectionRepository) Put(ctx context.Context, selection *model.MergeSelection) error {
	if selection == nil || selection.SessionID == "" {
		return goerr.New("session id is required")
	}

	doc := &mergeSelectionDocument{
		SessionID: selection.SessionID,
		ReportIDs: selection.ReportIDs,
		CreatedAt: selection.CreatedAt,
		ExpiresAt: selection.ExpiresAt,
	}
	for _, id := range selection.RiskIDs {
		doc.RiskIDs = append(doc.RiskIDs, id.String())
	}

	if _, err := r.doc(selection.SessionID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put merge selection", goerr.V("session_id", selection.SessionID))
	}
	return nil
}

func (r *mergeSelectionRepository) Get(ctx context.Context, sessionID string) (*model.MergeSelection, error) {
	snap, err := r.doc(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "merge selection not found", goerr.V("session_id", sessionID))
		}
		return nil, goerr.Wrap(err, "failed to get merge selection", goerr.V("session_id", sessionID))
	}

	var doc mergeSelectionDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal merge selection", goerr.V("session_id", sessionID))
	}

	selection := &model.MergeSelection{
		SessionID: doc.SessionID,
		ReportIDs: doc.ReportIDs,
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
	}
	for _, id := range doc.RiskIDs {
		selection.RiskIDs = append(selection.RiskIDs, model.RiskID(id))
	}

	// Expired documents are left for the TTL policy on expires_at to collect
	if selection.IsExpired(time.Now().UTC()) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "merge selection expired", goerr.V("session_id", sessionID))
	}

	return selection, nil
}

func (r *mergeSelectionRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.doc(sessionID).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return goerr.Wrap(err, "failed to delete merge selection", goerr.V("session_id", sessionID))
	}
	return nil
}
