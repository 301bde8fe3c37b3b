package http

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/model/auth"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/secmon-lab/riskreg/pkg/usecase"
	"github.com/secmon-lab/riskreg/pkg/utils/errutil"
	"github.com/secmon-lab/riskreg/pkg/utils/safe"
)

const (
	// reportFormField is the multipart field holding the JSON encoded report
	reportFormField = "report"
	// attachmentFormField is the multipart field repeated once per document
	attachmentFormField = "attachments"

	multipartMemory = 8 << 20
)

func (s *Server) listReportsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eligible, err := queryBool(r, "merge_eligible")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	filter := &model.ReportFilter{
		PrimaryCategory:   types.Category(r.URL.Query().Get("category")),
		Department:        r.URL.Query().Get("department"),
		MergeEligibleOnly: eligible,
	}
	for _, raw := range queryList(r, "status") {
		status, err := types.ParseReportStatus(strings.ToUpper(raw))
		if err != nil {
			writeError(ctx, w, &usecase.ValidationError{Field: "status", Message: err.Error()})
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	reports, err := s.uc.Report.List(ctx, filter)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toReportListResponse(reports))
}

// matchHandler answers whether the primary category already has reports. Reports staged in
// the session's merge selection are left out since they are about to be consolidated.
func (s *Server) matchHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	category := types.Category(r.URL.Query().Get("category"))
	result, err := s.uc.Match.FindForSession(ctx, category, auth.SessionIDFromContext(ctx))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}

func (s *Server) getReportHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := s.uc.Report.Get(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toReportResponse(report))
}

// submitHandler accepts a multipart form: the report as JSON in the "report" field and
// one "attachments" part per document
func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(ctx, w, http.StatusRequestEntityTooLarge, errorResponse{Error: "Request is too large"})
			return
		}
		badRequest(ctx, w, "Invalid multipart form")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			errutil.Handle(ctx, err, "failed to remove multipart temp files")
		}
	}()

	raw := r.MultipartForm.Value[reportFormField]
	if len(raw) != 1 {
		writeError(ctx, w, &usecase.ValidationError{Field: reportFormField, Message: "exactly one report field is required"})
		return
	}

	var req submitRequest
	dec := json.NewDecoder(strings.NewReader(raw[0]))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(ctx, w, &usecase.ValidationError{Field: reportFormField, Message: "report is not valid JSON"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := &usecase.SubmitInput{
		ScoreInput:  *req.toInput(),
		SessionID:   auth.SessionIDFromContext(ctx),
		Department:  req.Department,
		Description: req.Description,
		Treatment:   req.Treatment,
		Causes:      make(map[types.CauseTaxonomy][]string, len(req.Causes)),
	}
	for taxonomy, causes := range req.Causes {
		input.Causes[types.CauseTaxonomy(taxonomy)] = causes
	}

	files := r.MultipartForm.File[attachmentFormField]
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		defer safe.Close(ctx, f)
		input.Attachments = append(input.Attachments, attachmentInput(fh, f))
	}

	report, err := s.uc.Intake.Submit(ctx, input)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, toReportResponse(report))
}

func attachmentInput(fh *multipart.FileHeader, f multipart.File) usecase.AttachmentInput {
	return usecase.AttachmentInput{
		Name:    fh.Filename,
		Size:    fh.Size,
		Content: f,
	}
}

// previewHandler scores a draft without persisting anything
func (s *Server) previewHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req scoreRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	card, err := s.uc.Intake.Preview(ctx, req.toInput())
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, card)
}

func (s *Server) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req statusRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := s.uc.Report.UpdateStatus(ctx, id, types.ReportStatus(strings.ToUpper(req.Status)))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toReportResponse(report))
}

func (s *Server) assignOwnerHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req ownerRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := s.uc.Report.AssignOwner(ctx, id, strings.TrimSpace(req.OwnerID))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toReportResponse(report))
}

func (s *Server) updateClassificationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req scoreRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := s.uc.Report.UpdateClassification(ctx, id, req.toInput())
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toReportResponse(report))
}
