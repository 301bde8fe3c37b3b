package firestore

import (
	"time"

	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

type assessmentDocument struct {
	Category       string `firestore:"category"`
	Likelihood     int    `firestore:"likelihood"`
	Impact         int    `firestore:"impact"`
	Rating         int    `firestore:"rating"`
	Level          string `firestore:"level"`
	ResidualRating int    `firestore:"residual_rating"`
	ResidualLevel  string `firestore:"residual_level"`
}

type aggregateDocument struct {
	Total       int    `firestore:"total"`
	MaxPossible int    `firestore:"max_possible"`
	Level       string `firestore:"level"`
}

type attachmentDocument struct {
	ID           int64     `firestore:"id"`
	OriginalName string    `firestore:"original_name"`
	StoredPath   string    `firestore:"stored_path"`
	Size         int64     `firestore:"size"`
	MIMEType     string    `firestore:"mime_type"`
	CreatedAt    time.Time `firestore:"created_at"`
}

// reportDocument denormalizes primary_category, sequence_key and merged so that
// list and counter-seeding queries can run as single-field equality filters.
type reportDocument struct {
	ID              int64                `firestore:"id"`
	RiskID          string               `firestore:"risk_id"`
	SequenceKey     string               `firestore:"sequence_key"`
	Merged          bool                 `firestore:"merged"`
	PrimaryCategory string               `firestore:"primary_category"`
	Department      string               `firestore:"department"`
	Description     string               `firestore:"description"`
	Treatment       string               `firestore:"treatment"`
	Assessments     []assessmentDocument `firestore:"assessments"`
	Inherent        aggregateDocument    `firestore:"inherent"`
	Residual        aggregateDocument    `firestore:"residual"`
	Causes          map[string][]string  `firestore:"causes"`
	Status          string               `firestore:"status"`
	ReporterID      string               `firestore:"reporter_id"`
	OwnerID         string               `firestore:"owner_id"`
	Attachments     []attachmentDocument `firestore:"attachments"`
	CreatedAt       time.Time            `firestore:"created_at"`
	UpdatedAt       time.Time            `firestore:"updated_at"`
}

func toReportDocument(r *model.RiskReport) *reportDocument {
	doc := &reportDocument{
		ID:              r.ID,
		RiskID:          r.RiskID.String(),
		Merged:          r.RiskID.IsMerged(),
		PrimaryCategory: r.PrimaryCategory().String(),
		Department:      r.Department,
		Description:     r.Description,
		Treatment:       r.Treatment,
		Inherent:        toAggregateDocument(r.Inherent),
		Residual:        toAggregateDocument(r.Residual),
		Causes:          make(map[string][]string, len(r.Causes)),
		Status:          r.Status.String(),
		ReporterID:      r.ReporterID,
		OwnerID:         r.OwnerID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if key, ok := r.CountedUnder(); ok {
		doc.SequenceKey = key.String()
	}

	for _, a := range r.Assessments {
		doc.Assessments = append(doc.Assessments, assessmentDocument{
			Category:       a.Category.String(),
			Likelihood:     int(a.Likelihood),
			Impact:         int(a.Impact),
			Rating:         a.Rating,
			Level:          a.Level.String(),
			ResidualRating: a.ResidualRating,
			ResidualLevel:  a.ResidualLevel.String(),
		})
	}
	for taxonomy, causes := range r.Causes {
		doc.Causes[taxonomy.String()] = causes
	}
	for _, att := range r.Attachments {
		doc.Attachments = append(doc.Attachments, attachmentDocument{
			ID:           att.ID,
			OriginalName: att.OriginalName,
			StoredPath:   att.StoredPath,
			Size:         att.Size,
			MIMEType:     att.MIMEType,
			CreatedAt:    att.CreatedAt,
		})
	}

	return doc
}

func toAggregateDocument(s model.AggregateScore) aggregateDocument {
	return aggregateDocument{Total: s.Total, MaxPossible: s.MaxPossible, Level: s.Level.String()}
}

func (d *reportDocument) toModel() *model.RiskReport {
	r := &model.RiskReport{
		ID:          d.ID,
		RiskID:      model.RiskID(d.RiskID),
		Department:  d.Department,
		Description: d.Description,
		Treatment:   d.Treatment,
		Inherent:    d.Inherent.toModel(),
		Residual:    d.Residual.toModel(),
		Causes:      make(model.Causes, len(d.Causes)),
		Status:      types.ReportStatus(d.Status).Normalize(),
		ReporterID:  d.ReporterID,
		OwnerID:     d.OwnerID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	r.Sequence, _ = model.ParseSequenceKey(d.SequenceKey)

	for _, a := range d.Assessments {
		r.Assessments = append(r.Assessments, model.Assessment{
			Category:       types.Category(a.Category),
			Likelihood:     types.Likelihood(a.Likelihood),
			Impact:         types.Impact(a.Impact),
			Rating:         a.Rating,
			Level:          types.Level(a.Level),
			ResidualRating: a.ResidualRating,
			ResidualLevel:  types.Level(a.ResidualLevel),
		})
	}
	for taxonomy, causes := range d.Causes {
		r.Causes[types.CauseTaxonomy(taxonomy)] = causes
	}
	for _, att := range d.Attachments {
		r.Attachments = append(r.Attachments, model.Attachment{
			ID:           att.ID,
			OriginalName: att.OriginalName,
			StoredPath:   att.StoredPath,
			Size:         att.Size,
			MIMEType:     att.MIMEType,
			CreatedAt:    att.CreatedAt,
		})
	}

	return r
}

func (d aggregateDocument) toModel() model.AggregateScore {
	return model.AggregateScore{Total: d.Total, MaxPossible: d.MaxPossible, Level: types.Level(d.Level)}
}
