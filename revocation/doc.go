// Package revocation records refresh tokens that have been logged out.
//
// Entries are keyed by [Fingerprint], the hex SHA-256 of the token string, so raw tokens
// never reach a backend. Three implementations satisfy [Store]:
//
//   - [Memory]: process-local set, grows for the lifetime of the process.
//   - [Redis]: one key per token, expiring when the token itself would expire.
//   - [Postgres]: a revoked_tokens table reached through database/sql.
//
// Backend failures are wrapped with [ErrUnavailable]. Callers must treat them as
// "possibly revoked" and refuse the refresh.
package revocation
