package auth

import (
	"context"

	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

type ctxUserKey struct{}
type ctxSessionKey struct{}

// ContextWithUser stores the authenticated user in the context
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, user)
}

// UserFromContext returns the authenticated user, or nil when the request is anonymous
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxUserKey{}).(*model.User)
	return user
}

// ContextWithSessionID stores the browser session id used to key merge selections
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxSessionKey{}, sessionID)
}

// SessionIDFromContext returns the session id, or empty string
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxSessionKey{}).(string)
	return id
}

// NewAnonymousUser returns the development user used when authentication is disabled
func NewAnonymousUser(id, department string, role types.Role) *model.User {
	return &model.User{
		ID:         id,
		Name:       "anonymous",
		Department: department,
		Role:       role,
	}
}
