package flows

import "context"

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
	return s.deps.Validate.Decode != nil
}

func (s Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	return RunLogin(ctx, username, password, s.deps.Login)
}

func (s Service) VerifyCredentials(ctx context.Context, username, password string) (UserRecord, CredentialFailureKind, error) {
	return RunVerifyCredentials(ctx, username, password, s.deps.Login.Credentials)
}

func (s Service) Validate(tokenStr string) ValidateResult {
	return RunValidate(tokenStr, s.deps.Validate)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, refreshToken string) LogoutResult {
	return RunLogout(ctx, refreshToken, s.deps.Logout)
}

func (s Service) Register(ctx context.Context, req RegisterRequest) (UserRecord, error) {
	return RunRegister(ctx, req, s.deps.Register)
}
