package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/secmon-lab/riskreg/pkg/domain/model/auth"
	"github.com/secmon-lab/riskreg/pkg/utils/logging"
)

type loginRequest struct {
	Token string `json:"token" validate:"required,max=8192"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// loginHandler exchanges a signed token for an HttpOnly cookie so the browser form
// never keeps the token in script reachable storage
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.authUC == nil {
		writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: "Authentication is not configured"})
		return
	}
	if s.authUC.IsNoAuthn() {
		writeJSON(ctx, w, http.StatusOK, successResponse{Success: true})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		badRequest(ctx, w, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(ctx, w, err)
		return
	}

	user, err := s.authUC.ValidateToken(ctx, req.Token)
	if err != nil {
		logging.From(ctx).Info("login rejected", "error", err)
		writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: "Invalid authentication token"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    req.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionMaxAge,
	})

	logging.From(ctx).Info("user logged in", "user_id", user.ID, "role", user.Role)
	writeJSON(ctx, w, http.StatusOK, successResponse{Success: true})
}

// logoutHandler clears the token cookie. The merge selection of the session is left to expire.
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
}

// meHandler returns the current user information
func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	writeJSON(r.Context(), w, http.StatusOK, userResponse{
		ID:         user.ID,
		Name:       user.Name,
		Department: user.Department,
		Role:       user.Role,
	})
}
