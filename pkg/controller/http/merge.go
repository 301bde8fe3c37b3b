package http

import (
	"net/http"

	"github.com/secmon-lab/riskreg/pkg/domain/model/auth"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

func (s *Server) mergeCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reports, err := s.uc.Report.MergeCandidates(ctx, types.Category(r.URL.Query().Get("category")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toReportListResponse(reports))
}

func (s *Server) getSelectionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	selection, err := s.uc.Merge.Get(ctx, auth.SessionIDFromContext(ctx))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toSelectionResponse(selection))
}

// putSelectionHandler stages reports for merging. The next submission of the session
// becomes the merged report.
func (s *Server) putSelectionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req selectionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	selection, err := s.uc.Merge.Select(ctx, auth.SessionIDFromContext(ctx), req.ReportIDs)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toSelectionResponse(selection))
}

func (s *Server) deleteSelectionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.uc.Merge.Cancel(ctx, auth.SessionIDFromContext(ctx)); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, successResponse{Success: true})
}
