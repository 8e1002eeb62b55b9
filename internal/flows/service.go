package flows

import (
	"context"

	"github.com/tokenward/tokenward/jwt"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.Parse != nil
}

func (s Service) Validate(ctx context.Context, tokenStr string, expected jwt.TokenType) ValidateResult {
	return RunValidate(ctx, tokenStr, expected, s.deps.Validate)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, refreshToken string) LogoutResult {
	return RunLogout(ctx, refreshToken, s.deps.Logout)
}

func (s Service) RevokeAll(ctx context.Context) RevokeResult {
	return RunRevokeAll(ctx, s.deps.Revoke)
}

func (s Service) RevokeUser(ctx context.Context, userID string) RevokeResult {
	return RunRevokeUser(ctx, userID, s.deps.Revoke)
}

func (s Service) Cleanup(ctx context.Context) RevokeResult {
	return RunCleanup(ctx, s.deps.Revoke)
}

func (s Service) Login(ctx context.Context, username, password string) LoginResult {
	return RunLogin(ctx, username, password, s.deps.Login)
}

func (s Service) Issue(ctx context.Context, userID string) LoginResult {
	return RunIssue(ctx, userID, s.deps.Login)
}
