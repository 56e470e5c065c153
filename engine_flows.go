package tokenAuth

import (
	"context"

	"github.com/MrEthical07/tokenAuth/internal/flows"
	"github.com/MrEthical07/tokenAuth/jwt"
	"github.com/MrEthical07/tokenAuth/password"
	"go.uber.org/zap"
)

func (e *Engine) initFlows() {
	emit := func(ctx context.Context, event string, success bool, username string, userID int64, err error, meta func() map[string]string) {
		e.emitAudit(ctx, event, success, username, userID, err, meta)
	}
	inc := func(id int) { e.metricInc(MetricID(id)) }

	deps := flows.Deps{
		Login: flows.LoginDeps{
			ClientIPFromContext: clientIPFromContext,
			Credentials: flows.CredentialDeps{
				GetUserByUsername: e.lookupUser,
				VerifyPassword:    e.hasher.Verify,
				DummyHash:         e.dummyHash,
				UserNotFound:      ErrUserNotFound,
			},
			IssueAccess:  e.issueAccessToken,
			IssueRefresh: e.issueRefreshToken,
			MetricInc:    inc,
			EmitAudit:    emit,
			Warn: func(msg string, err error) {
				e.logger.Warn(msg, zap.Error(err))
			},
			Metrics: flows.LoginMetrics{
				LoginSuccess:     int(MetricLoginSuccess),
				LoginFailure:     int(MetricLoginFailure),
				LoginRateLimited: int(MetricLoginRateLimited),
			},
			Events: flows.LoginEvents{
				LoginSuccess:     auditEventLoginSuccess,
				LoginFailure:     auditEventLoginFailure,
				LoginRateLimited: auditEventLoginRateLimited,
			},
			Errors: flows.LoginErrors{
				EngineNotReady:       ErrEngineNotReady,
				InvalidCredentials:   ErrInvalidCredentials,
				LoginRateLimited:     ErrLoginRateLimited,
				UserStoreUnavailable: ErrUserStoreUnavailable,
			},
		},
		Validate: flows.ValidateDeps{
			Decode: e.jwtManager.Decode,
		},
		Refresh: flows.RefreshDeps{
			Revocations: e.revocations,
			Decode:      e.jwtManager.Decode,
			IssueAccess: e.issueAccessToken,
		},
		Logout: flows.LogoutDeps{
			Revocations: e.revocations,
			ExpiresAt:   e.jwtManager.ExpiresAt,
			Now:         e.now,
			RefreshTTL:  e.config.JWT.RefreshTTL,
		},
		Register: flows.RegisterDeps{
			HashPassword: e.hasher.Hash,
			CreateUser:   e.createUser,
			MetricInc:    inc,
			EmitAudit:    emit,
			Metrics: flows.RegisterMetrics{
				AccountCreated:   int(MetricAccountCreated),
				AccountDuplicate: int(MetricAccountDuplicate),
			},
			Events: flows.RegisterEvents{
				AccountCreated:   auditEventAccountCreated,
				AccountFailure:   auditEventAccountFailure,
				AccountDuplicate: auditEventAccountDuplicate,
			},
			Errors: flows.RegisterErrors{
				EngineNotReady:       ErrEngineNotReady,
				AccountInvalid:       ErrAccountInvalid,
				AccountExists:        ErrAccountExists,
				UserStoreUnavailable: ErrUserStoreUnavailable,
			},
		},
	}

	if e.config.Password.UpgradeOnLogin {
		updater, okStore := e.userStore.(PasswordHashUpdater)
		upgrader, okHasher := e.hasher.(password.Upgrader)
		if okStore && okHasher {
			deps.Login.Credentials.NeedsRehash = upgrader.NeedsRehash
			deps.Login.Credentials.HashPassword = e.hasher.Hash
			deps.Login.Credentials.UpdatePasswordHash = updater.UpdatePasswordHash
			deps.Login.Credentials.Warn = func(msg string, err error) {
				e.logger.Warn(msg, zap.Error(err))
			}
		}
	}

	if e.rateLimiter != nil {
		deps.Login.CheckLoginRate = e.rateLimiter.Check
		deps.Login.FailLoginRate = e.rateLimiter.Fail
		deps.Login.ResetLoginRate = e.rateLimiter.Reset
	}

	e.flows = flows.New(deps)
}

func (e *Engine) issueAccessToken(sub flows.Subject) (string, error) {
	return e.jwtManager.Encode(subjectClaims(sub, ""), e.config.JWT.AccessTTL)
}

func (e *Engine) issueRefreshToken(sub flows.Subject) (string, error) {
	return e.jwtManager.Encode(subjectClaims(sub, jwt.KindRefresh), e.config.JWT.RefreshTTL)
}

func subjectClaims(sub flows.Subject, kind string) jwt.Claims {
	c := jwt.Claims{UserID: sub.UserID, Role: sub.Role, Kind: kind}
	c.Subject = sub.Username
	return c
}

func (e *Engine) lookupUser(ctx context.Context, username string) (flows.UserRecord, error) {
	u, err := e.userStore.GetUserByUsername(ctx, username)
	if err != nil {
		return flows.UserRecord{}, err
	}
	return fromUserRecord(u), nil
}

func (e *Engine) createUser(ctx context.Context, u flows.UserRecord) (flows.UserRecord, error) {
	created, err := e.userStore.CreateUser(ctx, toUserRecord(u))
	if err != nil {
		return flows.UserRecord{}, err
	}
	return fromUserRecord(created), nil
}

func fromUserRecord(u UserRecord) flows.UserRecord {
	return flows.UserRecord{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		IsActive:     u.IsActive,
	}
}

func toUserRecord(u flows.UserRecord) UserRecord {
	return UserRecord{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		IsActive:     u.IsActive,
	}
}
