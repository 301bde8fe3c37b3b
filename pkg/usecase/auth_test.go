package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/secmon-lab/riskreg/pkg/usecase"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestAuthUseCase_IssueAndValidate(t *testing.T) {
	uc, err := usecase.NewAuthUseCase(testSecret)
	gt.NoError(t, err).Required()
	gt.Bool(t, uc.IsNoAuthn()).False()

	user := &model.User{ID: "U001", Name: "Owner", Department: "Asset Management", Role: types.RoleRiskOwner}
	token, err := uc.IssueToken(user)
	gt.NoError(t, err).Required()

	got, err := uc.ValidateToken(context.Background(), token)
	gt.NoError(t, err).Required()
	gt.Value(t, got).Equal(user)
}

func TestAuthUseCase_Rejects(t *testing.T) {
	now := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	uc, err := usecase.NewAuthUseCase(testSecret, usecase.WithAuthClock(clock), usecase.WithTokenTTL(time.Hour))
	gt.NoError(t, err).Required()
	user := &model.User{ID: "U001", Department: "Finance", Role: types.RoleCompliance}
	token, err := uc.IssueToken(user)
	gt.NoError(t, err).Required()

	t.Run("expired", func(t *testing.T) {
		later, err := usecase.NewAuthUseCase(testSecret, usecase.WithAuthClock(func() time.Time {
			return now.Add(2 * time.Hour)
		}))
		gt.NoError(t, err).Required()
		_, err = later.ValidateToken(context.Background(), token)
		gt.Error(t, err).Is(usecase.ErrAccessDenied)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := usecase.NewAuthUseCase([]byte("ffffffffffffffffffffffffffffffff"), usecase.WithAuthClock(clock))
		gt.NoError(t, err).Required()
		_, err = other.ValidateToken(context.Background(), token)
		gt.Error(t, err).Is(usecase.ErrAccessDenied)
	})

	t.Run("other issuer", func(t *testing.T) {
		other, err := usecase.NewAuthUseCase(testSecret, usecase.WithAuthClock(clock), usecase.WithTokenIssuer("someone-else"))
		gt.NoError(t, err).Required()
		_, err = other.ValidateToken(context.Background(), token)
		gt.Error(t, err).Is(usecase.ErrAccessDenied)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := uc.ValidateToken(context.Background(), "not-a-token")
		gt.Error(t, err).Is(usecase.ErrAccessDenied)
	})
}

func TestAuthUseCase_Settings(t *testing.T) {
	_, err := usecase.NewAuthUseCase([]byte("short"))
	gt.Error(t, err)

	uc, err := usecase.NewAuthUseCase(testSecret)
	gt.NoError(t, err).Required()

	_, err = uc.IssueToken(&model.User{ID: "U1", Role: types.Role("root")})
	gt.Error(t, err)

	_, err = uc.IssueToken(&model.User{Role: types.RoleStaff})
	gt.Error(t, err)
}
