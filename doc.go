// Package tokenAuth issues and validates stateless JWT session tokens for
// username/password logins.
//
// A successful [Engine.Login] returns a short-lived access token and a long-lived
// refresh token, both HS256-signed with one shared secret. [Engine.Authenticate]
// turns an access token into an [Identity] without touching any store.
// [Engine.Refresh] mints a new access token from a refresh token unless that
// token has been revoked by [Engine.Logout].
//
// # Wiring
//
//	engine, err := tokenAuth.New().
//		WithSecret(secret).
//		WithUserStore(accounts.NewMemory()).
//		WithRedis(rdb).            // optional: durable revocation + login throttle
//		WithLogger(logger).
//		Build()
//
// Without Redis the revocation set lives in process memory and is lost on restart.
//
// # Errors
//
// Every authentication failure wraps [ErrUnauthorized]. Backend failures on the
// revocation path surface as [ErrRevocationUnavailable] and are never treated as
// "not revoked".
package tokenAuth
