package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/secmon-lab/riskreg/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Auth holds CLI flags for token authentication or the development no-auth user
type Auth struct {
	secret     string
	issuer     string
	ttl        time.Duration
	noAuthUID  string
	noAuthDept string
	noAuthRole string
}

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(secret, noAuthUID, noAuthDept, noAuthRole string) *Auth {
	return &Auth{
		secret:     secret,
		issuer:     usecase.DefaultTokenIssuer,
		ttl:        usecase.DefaultTokenTTL,
		noAuthUID:  noAuthUID,
		noAuthDept: noAuthDept,
		noAuthRole: noAuthRole,
	}
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HMAC secret (at least 32 bytes) used to sign and verify user tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("RISKREG_JWT_SECRET"),
			Destination: &x.secret,
		},
		&cli.StringFlag{
			Name:        "jwt-issuer",
			Usage:       "Issuer claim of user tokens",
			Category:    "Authentication",
			Value:       usecase.DefaultTokenIssuer,
			Sources:     cli.EnvVars("RISKREG_JWT_ISSUER"),
			Destination: &x.issuer,
		},
		&cli.DurationFlag{
			Name:        "jwt-ttl",
			Usage:       "Lifetime of issued tokens",
			Category:    "Authentication",
			Value:       usecase.DefaultTokenTTL,
			Sources:     cli.EnvVars("RISKREG_JWT_TTL"),
			Destination: &x.ttl,
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and run as the specified user ID (development only). Example: --no-auth=U001",
			Category:    "Authentication",
			Sources:     cli.EnvVars("RISKREG_NO_AUTH"),
			Destination: &x.noAuthUID,
		},
		&cli.StringFlag{
			Name:        "no-auth-department",
			Usage:       "Department of the no-auth user",
			Category:    "Authentication",
			Sources:     cli.EnvVars("RISKREG_NO_AUTH_DEPARTMENT"),
			Destination: &x.noAuthDept,
		},
		&cli.StringFlag{
			Name:        "no-auth-role",
			Usage:       "Role of the no-auth user (staff, risk_owner, compliance, admin)",
			Category:    "Authentication",
			Value:       types.RoleRiskOwner.String(),
			Sources:     cli.EnvVars("RISKREG_NO_AUTH_ROLE"),
			Destination: &x.noAuthRole,
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("jwt-secret.len", len(x.secret)),
		slog.String("issuer", x.issuer),
		slog.Duration("ttl", x.ttl),
		slog.String("no-auth", x.noAuthUID),
	)
}

// IsNoAuthMode reports whether requests run as a fixed development user
func (x *Auth) IsNoAuthMode() bool {
	return x.noAuthUID != ""
}

// Configure returns the authentication use case for serving requests
func (x *Auth) Configure() (usecase.AuthUseCaseInterface, error) {
	if x.IsNoAuthMode() {
		role, err := types.ParseRole(x.noAuthRole)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid no-auth role")
		}
		return usecase.NewNoAuthnUseCase(x.noAuthUID, x.noAuthDept, role), nil
	}
	return x.ConfigureIssuer()
}

// ConfigureIssuer returns the token use case, which can also sign tokens
func (x *Auth) ConfigureIssuer() (*usecase.AuthUseCase, error) {
	if x.secret == "" {
		return nil, goerr.New("jwt-secret is required unless --no-auth is set")
	}
	uc, err := usecase.NewAuthUseCase([]byte(x.secret),
		usecase.WithTokenIssuer(x.issuer),
		usecase.WithTokenTTL(x.ttl),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure token authentication")
	}
	return uc, nil
}
