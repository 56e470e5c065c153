package tokenAuth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is the root of every authentication failure. Use
	// errors.Is(err, ErrUnauthorized) to map any of them to HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	// ErrTokenInvalid is returned for tokens that fail signature, expiry or format checks.
	ErrTokenInvalid = fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	// ErrRefreshInvalid is returned when a valid token that is not a refresh token is presented to Refresh.
	ErrRefreshInvalid = fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	// ErrRefreshRevoked is returned when the refresh token was logged out.
	ErrRefreshRevoked = fmt.Errorf("%w: refresh token revoked", ErrUnauthorized)

	// ErrLoginRateLimited is returned when the login throttle rejects an attempt.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrAccountExists is returned by Register when the username or email is taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountInvalid is returned by Register for missing required fields.
	ErrAccountInvalid = errors.New("invalid account request")
	// ErrUserStoreUnavailable wraps account lookup failures other than "not found".
	ErrUserStoreUnavailable = errors.New("user store unavailable")
	// ErrUserNotFound is returned by UserStore implementations for unknown usernames.
	ErrUserNotFound = errors.New("user not found")
	// ErrRevocationUnavailable is returned when the revocation store cannot be read or written.
	ErrRevocationUnavailable = errors.New("revocation store unavailable")
	// ErrEngineNotReady is returned by methods on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
