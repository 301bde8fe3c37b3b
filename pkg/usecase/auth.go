package usecase

import (
	"context"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

const (
	// DefaultTokenIssuer is the iss claim of tokens issued by riskreg
	DefaultTokenIssuer = "riskreg"

	// DefaultTokenTTL is how long an issued token stays valid
	DefaultTokenTTL = 12 * time.Hour

	// minSecretLength keeps HS256 keys at the hash size
	minSecretLength = 32

	claimName       = "name"
	claimDepartment = "department"
	claimRole       = "role"
)

// AuthUseCaseInterface resolves the current user of a request
type AuthUseCaseInterface interface {
	ValidateToken(ctx context.Context, token string) (*model.User, error)
	IsNoAuthn() bool
}

// AuthUseCase issues and verifies HS256 signed tokens carrying the user's department and role
type AuthUseCase struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  func() time.Time
}

var _ AuthUseCaseInterface = &AuthUseCase{}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithTokenIssuer sets the iss claim
func WithTokenIssuer(issuer string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.issuer = issuer
	}
}

// WithTokenTTL sets the token lifetime
func WithTokenTTL(ttl time.Duration) AuthOption {
	return func(uc *AuthUseCase) {
		uc.ttl = ttl
	}
}

// WithAuthClock replaces time.Now for issuing and validating tokens
func WithAuthClock(clock func() time.Time) AuthOption {
	return func(uc *AuthUseCase) {
		uc.clock = clock
	}
}

func NewAuthUseCase(secret []byte, options ...AuthOption) (*AuthUseCase, error) {
	if len(secret) < minSecretLength {
		return nil, goerr.New("auth secret is too short", goerr.V("min_length", minSecretLength))
	}

	uc := &AuthUseCase{
		secret: secret,
		issuer: DefaultTokenIssuer,
		ttl:    DefaultTokenTTL,
		clock:  time.Now,
	}
	for _, opt := range options {
		opt(uc)
	}

	return uc, nil
}

// IsNoAuthn returns false for regular AuthUseCase
func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}

// IssueToken signs a token for the user
func (uc *AuthUseCase) IssueToken(user *model.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", goerr.New("user id is required")
	}
	if !user.Role.IsValid() {
		return "", goerr.New("invalid role", goerr.V("role", user.Role))
	}

	now := uc.clock()
	token, err := jwt.NewBuilder().
		Issuer(uc.issuer).
		Subject(user.ID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(uc.ttl)).
		Claim(claimName, user.Name).
		Claim(claimDepartment, user.Department).
		Claim(claimRole, user.Role.String()).
		Build()
	if err != nil {
		return "", goerr.Wrap(err, "failed to build token")
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, uc.secret))
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign token")
	}

	return string(signed), nil
}

// ValidateToken verifies the signature and claims and returns the user the token was issued to
func (uc *AuthUseCase) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	// Allow 10 seconds of clock skew to handle time synchronization differences
	parsed, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, uc.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(uc.issuer),
		jwt.WithClock(jwt.ClockFunc(uc.clock)),
		jwt.WithAcceptableSkew(10*time.Second),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrAccessDenied, "failed to verify token", goerr.V("error", err.Error()))
	}

	if parsed.Subject() == "" {
		return nil, goerr.Wrap(ErrAccessDenied, "sub claim not found in token")
	}

	roleStr, err := stringClaim(parsed, claimRole)
	if err != nil {
		return nil, err
	}
	role, err := types.ParseRole(roleStr)
	if err != nil {
		return nil, goerr.Wrap(ErrAccessDenied, "role claim is not valid", goerr.V("role", roleStr))
	}
	department, err := stringClaim(parsed, claimDepartment)
	if err != nil {
		return nil, err
	}
	name, _ := stringClaim(parsed, claimName)

	return &model.User{
		ID:         parsed.Subject(),
		Name:       name,
		Department: department,
		Role:       role,
	}, nil
}

func stringClaim(token jwt.Token, key string) (string, error) {
	v, ok := token.Get(key)
	if !ok {
		return "", goerr.Wrap(ErrAccessDenied, "claim not found in token", goerr.V("claim", key))
	}
	s, ok := v.(string)
	if !ok {
		return "", goerr.Wrap(ErrAccessDenied, "claim is not a string", goerr.V("claim", key))
	}
	return s, nil
}
