package tokenAuth

import (
	"context"
	"fmt"
	"time"

	internalaudit "github.com/MrEthical07/tokenAuth/internal/audit"
	"github.com/MrEthical07/tokenAuth/internal/flows"
	"github.com/MrEthical07/tokenAuth/internal/rate"
	"github.com/MrEthical07/tokenAuth/jwt"
	"github.com/MrEthical07/tokenAuth/password"
	"github.com/MrEthical07/tokenAuth/revocation"
	"go.uber.org/zap"
)

// Engine issues, validates, refreshes and revokes session tokens.
// All methods are safe for concurrent use after [Builder.Build].
type Engine struct {
	config      Config
	jwtManager  *jwt.Manager
	hasher      password.Hasher
	dummyHash   string
	userStore   UserStore
	revocations revocation.Store
	rateLimiter *rate.Limiter
	audit       *internalaudit.Dispatcher
	metrics     *Metrics
	logger      *zap.Logger
	now         func() time.Time
	flows       flows.Service
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped returns the number of audit events lost to a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Login verifies username and password and returns a fresh access and refresh
// token. Unknown users and wrong passwords both yield [ErrInvalidCredentials].
func (e *Engine) Login(ctx context.Context, username, password string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	res, err := e.flows.Login(ctx, username, password)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    TokenTypeBearer,
	}, nil
}

// VerifyCredentials checks username and password without issuing tokens.
// Unknown users and wrong passwords both yield [ErrInvalidCredentials]; the
// returned record carries the stored hash and must not leave the process.
func (e *Engine) VerifyCredentials(ctx context.Context, username, password string) (UserRecord, error) {
	if !e.ready() {
		return UserRecord{}, ErrEngineNotReady
	}

	user, kind, err := e.flows.VerifyCredentials(ctx, username, password)
	switch kind {
	case flows.CredentialFailureNone:
		return toUserRecord(user), nil
	case flows.CredentialFailureLookup:
		e.logger.Warn("user lookup failed", zap.Error(err))
		return UserRecord{}, fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	default:
		return UserRecord{}, ErrInvalidCredentials
	}
}

// Authenticate decodes an access token into the caller's identity. It does
// not consult the revocation set.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	res := e.flows.Validate(token)

	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}

	if res.Failure != flows.ValidateFailureNone {
		e.metricInc(MetricAuthenticateFailure)
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, res.Err)
		}
		return nil, ErrTokenInvalid
	}

	e.metricInc(MetricAuthenticateSuccess)
	return &Identity{
		Username: res.Claims.Subject,
		UserID:   res.Claims.UserID,
		Role:     res.Claims.Role,
	}, nil
}

// Refresh exchanges a refresh token for a new access token. The returned pair
// has no RefreshToken; the caller keeps using the one it presented.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, refreshToken)

	var username string
	var userID int64
	if res.Claims != nil {
		username, userID = res.Claims.Subject, res.Claims.UserID
	}

	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, username, userID, nil, nil)
		return TokenPair{AccessToken: res.AccessToken, TokenType: TokenTypeBearer}, nil

	case flows.RefreshFailureRevocationUnavailable:
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricRevocationUnavailable)
		e.logger.Error("revocation lookup failed", zap.Error(res.Err))
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", 0, ErrRevocationUnavailable, nil)
		return TokenPair{}, fmt.Errorf("%w: %v", ErrRevocationUnavailable, res.Err)

	case flows.RefreshFailureRevoked:
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricRefreshRevoked)
		e.emitAudit(ctx, auditEventRefreshRevoked, false, "", 0, ErrRefreshRevoked, nil)
		return TokenPair{}, ErrRefreshRevoked

	case flows.RefreshFailureDecode:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", 0, ErrTokenInvalid, func() map[string]string {
			return map[string]string{"reason": "decode_failed"}
		})
		return TokenPair{}, fmt.Errorf("%w: %w", ErrTokenInvalid, res.Err)

	case flows.RefreshFailureNotRefresh:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, username, userID, ErrRefreshInvalid, func() map[string]string {
			return map[string]string{"reason": "not_refresh_token"}
		})
		return TokenPair{}, ErrRefreshInvalid

	default:
		e.metricInc(MetricRefreshFailure)
		e.logger.Error("access token issue failed", zap.Error(res.Err))
		e.emitAudit(ctx, auditEventRefreshInvalid, false, username, userID, res.Err, func() map[string]string {
			return map[string]string{"reason": "issue_access_failed"}
		})
		return TokenPair{}, res.Err
	}
}

// Logout adds refreshToken to the revocation set. Any string is accepted and
// repeated calls succeed.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, refreshToken)
	if res.Err != nil {
		e.metricInc(MetricRevocationUnavailable)
		e.logger.Error("revocation write failed", zap.Error(res.Err))
		e.emitAudit(ctx, auditEventLogout, false, "", 0, ErrRevocationUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrRevocationUnavailable, res.Err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, "", 0, nil, func() map[string]string {
		return map[string]string{"expires_at": res.ExpiresAt.UTC().Format(time.RFC3339)}
	})
	return nil
}

// Register creates an account, active unless user.IsActive is false. A taken
// username or email yields [ErrAccountExists].
func (e *Engine) Register(ctx context.Context, user NewUser) (UserRecord, error) {
	if !e.ready() {
		return UserRecord{}, ErrEngineNotReady
	}

	active := true
	if user.IsActive != nil {
		active = *user.IsActive
	}

	created, err := e.flows.Register(ctx, flows.RegisterRequest{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Password:  user.Password,
		Role:      user.Role,
		IsActive:  active,
	})
	if err != nil {
		return UserRecord{}, err
	}
	return toUserRecord(created), nil
}
