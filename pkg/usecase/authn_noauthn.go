package usecase

import (
	"context"

	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/model/auth"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

// NoAuthnUseCase provides authentication using a specified user (for development/testing)
type NoAuthnUseCase struct {
	user *model.User
}

var _ AuthUseCaseInterface = &NoAuthnUseCase{}

// NewNoAuthnUseCase creates a new NoAuthnUseCase instance with specified user info
func NewNoAuthnUseCase(id, department string, role types.Role) *NoAuthnUseCase {
	return &NoAuthnUseCase{
		user: auth.NewAnonymousUser(id, department, role),
	}
}

// ValidateToken always returns the specified user
func (uc *NoAuthnUseCase) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	copied := *uc.user
	return &copied, nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
