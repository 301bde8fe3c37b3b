package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const reportCounterDoc = "report_counter"

type reportRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newReportRepository(client *firestore.Client) *reportRepository {
	return &reportRepository{
		client: client,
	}
}

func (r *reportRepository) reportsCollection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "reports"))
}

func (r *reportRepository) countersCollection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "counters"))
}

func (r *reportRepository) reportDoc(id int64) *firestore.DocumentRef {
	return r.reportsCollection().Doc(fmt.Sprintf("%d", id))
}

func sequenceCounterDoc(key model.SequenceKey) string {
	return "risk_seq_" + key.String()
}

// readCounter returns the counter value, or found=false when the document does not exist
func readCounter(tx *firestore.Transaction, ref *firestore.DocumentRef) (value int64, found bool, err error) {
	doc, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, false, nil
		}
		return 0, false, goerr.Wrap(err, "failed to get counter", goerr.V("counter", ref.ID))
	}

	v, err := doc.DataAt("value")
	if err != nil {
		return 0, false, goerr.Wrap(err, "failed to get counter value", goerr.V("counter", ref.ID))
	}
	n, ok := v.(int64)
	if !ok {
		return 0, false, goerr.New("counter value is not an integer", goerr.V("counter", ref.ID), goerr.V("value", v))
	}
	return n, true, nil
}

// Commit runs every read (sources, counters, seed count) before any write, as Firestore
// transactions require. The transaction function may be retried, so all state is rebuilt inside it.
func (r *reportRepository) Commit(ctx context.Context, commit *model.ReportCommit) (*model.RiskReport, error) {
	if commit == nil || commit.Report == nil {
		return nil, goerr.New("report is required")
	}
	counted := commit.Sequence.Validate() == nil
	if commit.Report.RiskID == "" && !counted {
		return nil, goerr.Wrap(commit.Sequence.Validate(), "invalid sequence key")
	}

	var created *model.RiskReport
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = commit.Report.Copy()

		sourceRefs := make([]*firestore.DocumentRef, 0, len(commit.ConsolidateIDs))
		for _, id := range commit.ConsolidateIDs {
			ref := r.reportDoc(id)
			doc, err := tx.Get(ref)
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return goerr.Wrap(interfaces.ErrConflict, "merge source not found", goerr.V("id", id))
				}
				return goerr.Wrap(err, "failed to get merge source", goerr.V("id", id))
			}
			var src reportDocument
			if err := doc.DataTo(&src); err != nil {
				return goerr.Wrap(err, "failed to unmarshal merge source", goerr.V("id", id))
			}
			if !src.toModel().IsMergeEligible() {
				return goerr.Wrap(interfaces.ErrConflict, "merge source is not merge eligible",
					goerr.V("id", id), goerr.V("risk_id", src.RiskID), goerr.V("status", src.Status))
			}
			sourceRefs = append(sourceRefs, ref)
		}

		idRef := r.countersCollection().Doc(reportCounterDoc)
		lastID, _, err := readCounter(tx, idRef)
		if err != nil {
			return err
		}

		var seqRef *firestore.DocumentRef
		var seq int64
		if counted {
			seqRef = r.countersCollection().Doc(sequenceCounterDoc(commit.Sequence))
			current, found, err := readCounter(tx, seqRef)
			if err != nil {
				return err
			}
			if !found {
				current, err = r.countSequence(tx, commit.Sequence)
				if err != nil {
					return err
				}
			}
			seq = current + 1
			if created.RiskID == "" {
				created.RiskID = commit.Sequence.RiskID(int(seq))
			}
			created.Sequence = commit.Sequence
		}

		if created.CreatedAt.IsZero() {
			created.CreatedAt = time.Now().UTC()
		}
		now := created.CreatedAt
		created.ID = lastID + 1
		if created.Status == "" {
			created.Status = types.ReportStatusOpen
		}
		created.UpdatedAt = now
		for i := range created.Attachments {
			created.Attachments[i].ID = int64(i + 1)
			created.Attachments[i].CreatedAt = now
		}

		if err := tx.Set(idRef, map[string]any{"value": created.ID}); err != nil {
			return goerr.Wrap(err, "failed to update report counter")
		}
		if seqRef != nil {
			if err := tx.Set(seqRef, map[string]any{"value": seq}); err != nil {
				return goerr.Wrap(err, "failed to update sequence counter", goerr.V("key", commit.Sequence.String()))
			}
		}
		if err := tx.Create(r.reportDoc(created.ID), toReportDocument(created)); err != nil {
			return goerr.Wrap(err, "failed to create report", goerr.V("id", created.ID))
		}
		for _, ref := range sourceRefs {
			if err := tx.Update(ref, []firestore.Update{
				{Path: "status", Value: types.ReportStatusConsolidated.String()},
				{Path: "updated_at", Value: now},
			}); err != nil {
				return goerr.Wrap(err, "failed to consolidate merge source", goerr.V("doc", ref.ID))
			}
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to commit report")
	}

	return created, nil
}

// countSequence counts reports stored under the key, merge products included
func (r *reportRepository) countSequence(tx *firestore.Transaction, key model.SequenceKey) (int64, error) {
	query := r.reportsCollection().Where("sequence_key", "==", key.String())
	iter := tx.Documents(query)
	defer iter.Stop()

	var count int64
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to count reports for sequence", goerr.V("key", key.String()))
		}
		count++
	}
	return count, nil
}

func (r *reportRepository) Get(ctx context.Context, id int64) (*model.RiskReport, error) {
	doc, err := r.reportDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "report not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get report", goerr.V("id", id))
	}

	var reportDoc reportDocument
	if err := doc.DataTo(&reportDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal report", goerr.V("id", id))
	}

	return reportDoc.toModel(), nil
}

func (r *reportRepository) List(ctx context.Context, filter *model.ReportFilter) ([]*model.RiskReport, error) {
	query := r.reportsCollection().Query
	if filter != nil {
		if filter.PrimaryCategory != "" {
			query = query.Where("primary_category", "==", filter.PrimaryCategory.String())
		}
		if filter.Department != "" {
			query = query.Where("department", "==", filter.Department)
		}
		if filter.MergeEligibleOnly {
			query = query.Where("merged", "==", false)
		}
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var reports []*model.RiskReport
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate reports")
		}

		var reportDoc reportDocument
		if err := doc.DataTo(&reportDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal report", goerr.V("doc", doc.Ref.ID))
		}

		report := reportDoc.toModel()
		if !filter.Match(report) {
			continue
		}
		reports = append(reports, report)
	}

	model.SortReportsByRecency(reports)
	return reports, nil
}

func (r *reportRepository) Update(ctx context.Context, report *model.RiskReport) (*model.RiskReport, error) {
	ref := r.reportDoc(report.ID)

	var updated *model.RiskReport
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "report not found", goerr.V("id", report.ID))
			}
			return goerr.Wrap(err, "failed to get report", goerr.V("id", report.ID))
		}

		var existing reportDocument
		if err := doc.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to unmarshal report", goerr.V("id", report.ID))
		}

		updated = existing.toModel()
		if updated.Status.IsTerminal() {
			return goerr.Wrap(interfaces.ErrConflict, "report is consolidated", goerr.V("id", report.ID))
		}
		updated.Status = report.Status
		updated.OwnerID = report.OwnerID
		updated.Treatment = report.Treatment
		updated.Assessments = report.Assessments
		updated.Inherent = report.Inherent
		updated.Residual = report.Residual
		updated.UpdatedAt = time.Now().UTC()

		return tx.Set(ref, toReportDocument(updated))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update report", goerr.V("id", report.ID))
	}

	return updated.Copy(), nil
}
