package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/model/auth"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

func currentUser(ctx context.Context) (*model.User, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return nil, goerr.Wrap(ErrAccessDenied, "no authenticated user")
	}
	return user, nil
}

// requireRole returns the current user if it holds one of the roles
func requireRole(ctx context.Context, roles ...types.Role) (*model.User, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.HasRole(roles...) {
		return nil, goerr.Wrap(ErrAccessDenied, "role is not permitted",
			goerr.V("user_id", user.ID), goerr.V("role", user.Role), goerr.V("required", roles))
	}
	return user, nil
}

// canRead reports whether the user may see the full detail of a report.
// Compliance and admins see everything, risk owners see their department and
// reporters see their own submissions.
func canRead(user *model.User, report *model.RiskReport) bool {
	if user.HasRole(types.RoleCompliance) {
		return true
	}
	if user.Role == types.RoleRiskOwner && user.Department == report.Department {
		return true
	}
	return report.ReporterID != "" && report.ReporterID == user.ID
}

// canWrite reports whether the user may change a report's workflow fields
func canWrite(user *model.User, report *model.RiskReport) bool {
	if user.Role == types.RoleAdmin {
		return true
	}
	return user.Role == types.RoleRiskOwner && user.Department == report.Department
}
