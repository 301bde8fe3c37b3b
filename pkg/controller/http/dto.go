package http

import (
	"time"

	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/secmon-lab/riskreg/pkg/usecase"
)

type assessmentRequest struct {
	Category   string `json:"category" validate:"max=128"`
	Likelihood int    `json:"likelihood"`
	Impact     int    `json:"impact"`
}

func (a assessmentRequest) toInput() usecase.AssessmentInput {
	return usecase.AssessmentInput{
		Category:   types.Category(a.Category),
		Likelihood: types.Likelihood(a.Likelihood),
		Impact:     types.Impact(a.Impact),
	}
}

type scoreRequest struct {
	Primary   assessmentRequest   `json:"primary"`
	Secondary []assessmentRequest `json:"secondary" validate:"max=20,dive"`
}

func (s *scoreRequest) toInput() *usecase.ScoreInput {
	in := &usecase.ScoreInput{
		Primary:   s.Primary.toInput(),
		Secondary: make([]usecase.AssessmentInput, len(s.Secondary)),
	}
	for i, a := range s.Secondary {
		in.Secondary[i] = a.toInput()
	}
	return in
}

type submitRequest struct {
	scoreRequest
	Department  string              `json:"department" validate:"max=128"`
	Description string              `json:"description" validate:"max=20000"`
	Treatment   string              `json:"treatment" validate:"max=20000"`
	Causes      map[string][]string `json:"causes" validate:"max=4,dive,max=50,dive,max=500"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ownerRequest struct {
	OwnerID string `json:"owner_id" validate:"max=256"`
}

type selectionRequest struct {
	ReportIDs []int64 `json:"report_ids" validate:"required,min=2,max=50,dive,gt=0"`
}

type attachmentResponse struct {
	ID           int64     `json:"id"`
	OriginalName string    `json:"original_name"`
	StoredPath   string    `json:"stored_path"`
	Size         int64     `json:"size"`
	MIMEType     string    `json:"mime_type"`
	CreatedAt    time.Time `json:"created_at"`
}

type reportResponse struct {
	ID              int64                            `json:"id"`
	RiskID          string                           `json:"risk_id"`
	Merged          bool                             `json:"merged"`
	MergeEligible   bool                             `json:"merge_eligible"`
	Department      string                           `json:"department"`
	Description     string                           `json:"description"`
	Treatment       string                           `json:"treatment"`
	PrimaryCategory string                           `json:"primary_category"`
	Assessments     []model.Assessment               `json:"assessments"`
	Inherent        model.AggregateScore             `json:"inherent"`
	Residual        model.AggregateScore             `json:"residual"`
	Causes          map[types.CauseTaxonomy][]string `json:"causes"`
	Status          types.ReportStatus               `json:"status"`
	ReporterID      string                           `json:"reporter_id"`
	OwnerID         string                           `json:"owner_id"`
	Attachments     []attachmentResponse             `json:"attachments"`
	CreatedAt       time.Time                        `json:"created_at"`
	UpdatedAt       time.Time                        `json:"updated_at"`
}

func toReportResponse(r *model.RiskReport) reportResponse {
	resp := reportResponse{
		ID:              r.ID,
		RiskID:          r.RiskID.String(),
		Merged:          r.RiskID.IsMerged(),
		MergeEligible:   r.IsMergeEligible(),
		Department:      r.Department,
		Description:     r.Description,
		Treatment:       r.Treatment,
		PrimaryCategory: r.PrimaryCategory().String(),
		Assessments:     r.Assessments,
		Inherent:        r.Inherent,
		Residual:        r.Residual,
		Causes:          r.Causes,
		Status:          r.Status,
		ReporterID:      r.ReporterID,
		OwnerID:         r.OwnerID,
		Attachments:     make([]attachmentResponse, len(r.Attachments)),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	for i, a := range r.Attachments {
		resp.Attachments[i] = attachmentResponse{
			ID:           a.ID,
			OriginalName: a.OriginalName,
			StoredPath:   a.StoredPath,
			Size:         a.Size,
			MIMEType:     a.MIMEType,
			CreatedAt:    a.CreatedAt,
		}
	}
	return resp
}

type reportListResponse struct {
	Reports []reportResponse `json:"reports"`
}

func toReportListResponse(reports []*model.RiskReport) reportListResponse {
	resp := reportListResponse{Reports: make([]reportResponse, len(reports))}
	for i, r := range reports {
		resp.Reports[i] = toReportResponse(r)
	}
	return resp
}

type selectionResponse struct {
	Selection *selectionBody `json:"selection"`
}

type selectionBody struct {
	ReportIDs []int64   `json:"report_ids"`
	RiskIDs   []string  `json:"risk_ids"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toSelectionResponse(s *model.MergeSelection) selectionResponse {
	if s == nil {
		return selectionResponse{}
	}
	body := &selectionBody{
		ReportIDs: s.ReportIDs,
		RiskIDs:   make([]string, len(s.RiskIDs)),
		ExpiresAt: s.ExpiresAt,
	}
	for i, id := range s.RiskIDs {
		body.RiskIDs[i] = id.String()
	}
	return selectionResponse{Selection: body}
}

type userResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Department string     `json:"department"`
	Role       types.Role `json:"role"`
}
