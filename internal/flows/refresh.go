package flows

import (
	"context"

	"github.com/MrEthical07/tokenAuth/jwt"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureRevocationUnavailable
	RefreshFailureRevoked
	RefreshFailureDecode
	RefreshFailureNotRefresh
	RefreshFailureIssueAccess
)

// RefreshResult carries either the new access token or failure metadata.
type RefreshResult struct {
	Failure     RefreshFailureKind
	Err         error
	Claims      *jwt.Claims
	AccessToken string
}

// RevocationChecker is the read side of the revocation set.
type RevocationChecker interface {
	Contains(ctx context.Context, token string) (bool, error)
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Revocations RevocationChecker
	Decode      func(string) (*jwt.Claims, error)
	IssueAccess func(Subject) (string, error)
}

// RunRefresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated.
//
// The revocation check runs first, so a logged-out token is reported as revoked
// even when it has also expired.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	revoked, err := deps.Revocations.Contains(ctx, refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureRevocationUnavailable, Err: err}
	}
	if revoked {
		return RefreshResult{Failure: RefreshFailureRevoked}
	}

	claims, err := deps.Decode(refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	}
	if !claims.IsRefresh() || claims.Subject == "" {
		return RefreshResult{Failure: RefreshFailureNotRefresh, Claims: claims}
	}

	access, err := deps.IssueAccess(Subject{
		Username: claims.Subject,
		UserID:   claims.UserID,
		Role:     claims.Role,
	})
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssueAccess, Err: err, Claims: claims}
	}

	return RefreshResult{Claims: claims, AccessToken: access}
}
