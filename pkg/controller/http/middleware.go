package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/secmon-lab/riskreg/pkg/domain/model/auth"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/secmon-lab/riskreg/pkg/usecase"
	"github.com/secmon-lab/riskreg/pkg/utils/logging"
)

type AuthUseCase = usecase.AuthUseCaseInterface

const (
	// SessionCookieName keys the merge selection of a browser session
	SessionCookieName = "riskreg_session"

	// TokenCookieName carries the signed user token when no Authorization header is sent
	TokenCookieName = "riskreg_token"

	sessionMaxAge = 12 * 60 * 60
)

// sessionMiddleware makes sure every request has a session id, issuing one in a cookie when missing
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if c, err := r.Cookie(SessionCookieName); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sessionID = c.Value
			}
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.secureCookie || r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   sessionMaxAge,
			})
		}

		ctx := auth.ContextWithSessionID(r.Context(), sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authMiddleware resolves the current user from a bearer token or the token cookie
func authMiddleware(authUC AuthUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authUC == nil {
				writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Error: "Authentication is not configured"})
				return
			}

			token := bearerToken(r)
			if token == "" && !authUC.IsNoAuthn() {
				writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Error: "Authentication required"})
				return
			}

			user, err := authUC.ValidateToken(r.Context(), token)
			if err != nil {
				logging.From(r.Context()).Info("rejected token", "error", err)
				writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Error: "Invalid authentication token"})
				return
			}

			ctx := auth.ContextWithUser(r.Context(), user)
			ctx = logging.With(ctx, logging.From(ctx).With("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(TokenCookieName); err == nil {
		return c.Value
	}
	return ""
}

// requireRole rejects users that hold none of the roles. Admins pass every gate.
func requireRole(roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFromContext(r.Context())
			if !user.HasRole(roles...) {
				writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{Error: "Access denied"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
