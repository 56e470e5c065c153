package flows

import (
	"context"
	"fmt"
)

// Subject is the identity embedded in issued tokens.
type Subject struct {
	Username string
	UserID   int64
	Role     string
}

// SubjectOf returns the token subject for user.
func SubjectOf(user UserRecord) Subject {
	return Subject{Username: user.Username, UserID: user.ID, Role: user.Role}
}

// LoginResult is the flow-local login response.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         UserRecord
}

// LoginMetrics carries metric IDs used by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginErrors carries host-level sentinel errors.
type LoginErrors struct {
	EngineNotReady       error
	InvalidCredentials   error
	LoginRateLimited     error
	UserStoreUnavailable error
}

// AuditFunc emits one audit event. meta is evaluated lazily.
type AuditFunc func(ctx context.Context, event string, success bool, username string, userID int64, err error, meta func() map[string]string)

// LoginDeps captures login dependencies.
type LoginDeps struct {
	ClientIPFromContext func(context.Context) string

	CheckLoginRate func(context.Context, string, string) error
	FailLoginRate  func(context.Context, string, string) error
	ResetLoginRate func(context.Context, string, string) error

	Credentials  CredentialDeps
	IssueAccess  func(Subject) (string, error)
	IssueRefresh func(Subject) (string, error)

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, error)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

func normalizeLoginDeps(deps *LoginDeps) {
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, int64, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, error) {}
	}
}

// RunLogin verifies credentials and issues an access and a refresh token.
// Nothing is persisted.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) (*LoginResult, error) {
	normalizeLoginDeps(&deps)
	if deps.Credentials.GetUserByUsername == nil ||
		deps.Credentials.VerifyPassword == nil ||
		deps.IssueAccess == nil ||
		deps.IssueRefresh == nil {
		return nil, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, username, ip); err != nil {
			deps.MetricInc(deps.Metrics.LoginRateLimited)
			deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, username, 0, deps.Errors.LoginRateLimited, nil)
			return nil, deps.Errors.LoginRateLimited
		}
	}

	user, kind, err := RunVerifyCredentials(ctx, username, password, deps.Credentials)
	password = ""
	switch kind {
	case CredentialFailureNone:
	case CredentialFailureLookup:
		deps.Warn("user lookup failed", err)
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, username, 0, deps.Errors.UserStoreUnavailable, func() map[string]string {
			return map[string]string{"reason": "store_unavailable"}
		})
		return nil, fmt.Errorf("%w: %v", deps.Errors.UserStoreUnavailable, err)
	default:
		if deps.FailLoginRate != nil {
			if rateErr := deps.FailLoginRate(ctx, username, ip); rateErr != nil {
				deps.Warn("login throttle update failed", rateErr)
			}
		}
		reason := "password_mismatch"
		if kind == CredentialFailureUnknownUser {
			reason = "user_not_found"
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, username, 0, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	sub := SubjectOf(user)
	access, err := deps.IssueAccess(sub)
	if err != nil {
		return nil, err
	}
	refresh, err := deps.IssueRefresh(sub)
	if err != nil {
		return nil, err
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, username, ip); err != nil {
			deps.Warn("login throttle reset failed", err)
		}
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, user.Username, user.ID, nil, nil)

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}
