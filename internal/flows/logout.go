package flows

import (
	"context"
	"time"
)

// RevocationWriter is the write side of the revocation set.
type RevocationWriter interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Revocations RevocationWriter
	// ExpiresAt reads exp without verifying the token.
	ExpiresAt  func(string) (time.Time, bool)
	Now        func() time.Time
	RefreshTTL time.Duration
}

// LogoutResult reports the expiry the revocation entry was recorded with.
type LogoutResult struct {
	ExpiresAt time.Time
	Err       error
}

// RunLogout revokes refreshToken without validating it. Expired, malformed or
// already revoked tokens are accepted. Entries for unreadable tokens are kept for
// a full refresh lifetime.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) LogoutResult {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	expiresAt, ok := time.Time{}, false
	if deps.ExpiresAt != nil {
		expiresAt, ok = deps.ExpiresAt(refreshToken)
	}
	if !ok {
		expiresAt = now().Add(deps.RefreshTTL)
	}

	return LogoutResult{
		ExpiresAt: expiresAt,
		Err:       deps.Revocations.Revoke(ctx, refreshToken, expiresAt),
	}
}
