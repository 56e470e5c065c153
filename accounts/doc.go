// Package accounts provides [tokenAuth.UserStore] implementations: an in-memory
// map for tests and single-process deployments, and a PostgreSQL store reached
// through database/sql with the pgx driver.
package accounts
