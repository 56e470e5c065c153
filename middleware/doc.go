// Package middleware adapts tokenAuth to net/http.
//
//   - [Guard] rejects requests without a valid bearer access token and stores
//     the caller's [tokenAuth.Identity] in the request context.
//   - [RequireRole] narrows a guarded route to specific roles.
//   - [RequestLogger] assigns an X-Request-ID and logs each request with zap.
//
// Token decisions are delegated to the engine; this package never parses JWTs.
package middleware
