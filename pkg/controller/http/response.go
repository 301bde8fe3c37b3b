package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/secmon-lab/riskreg/pkg/usecase"
	"github.com/secmon-lab/riskreg/pkg/utils/errutil"
	"github.com/secmon-lab/riskreg/pkg/utils/logging"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}

// writeError maps use case errors to a status code and a message that is safe to show.
// Server side failures are logged with full detail and reported generically.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *usecase.ValidationError
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.As(err, &verr):
		logging.From(ctx).Info("request rejected", "field", verr.Field, "reason", verr.Message)
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})

	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		fe := fieldErrs[0]
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			Error: "failed on the '" + fe.Tag() + "' rule",
			Field: fe.Field(),
		})

	case errors.Is(err, usecase.ErrAccessDenied):
		logging.From(ctx).Info("access denied", "error", err)
		writeJSON(ctx, w, http.StatusForbidden, errorResponse{Error: "Access denied"})

	case errors.Is(err, usecase.ErrReportNotFound):
		writeJSON(ctx, w, http.StatusNotFound, errorResponse{Error: "Report not found"})

	case errors.Is(err, usecase.ErrNotMergeEligible),
		errors.Is(err, usecase.ErrInsufficientMergeSources),
		errors.Is(err, usecase.ErrInvalidStatusTransition):
		logging.From(ctx).Info("request conflicts with report state", "error", err)
		writeJSON(ctx, w, http.StatusConflict, errorResponse{Error: conflictMessage(err)})

	case errors.Is(err, usecase.ErrLookup):
		errutil.Handle(ctx, err, "existing risk lookup failed")
		writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{Error: "Unable to check existing risks, contact support"})

	case errors.Is(err, usecase.ErrPersistence):
		errutil.Handle(ctx, err, "submission failed")
		writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "Failed to submit the risk report"})

	default:
		errutil.Handle(ctx, err, "request failed")
		writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrNotMergeEligible):
		return usecase.ErrNotMergeEligible.Error()
	case errors.Is(err, usecase.ErrInsufficientMergeSources):
		return usecase.ErrInsufficientMergeSources.Error()
	default:
		return usecase.ErrInvalidStatusTransition.Error()
	}
}

func badRequest(ctx context.Context, w http.ResponseWriter, msg string) {
	writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: msg})
}
