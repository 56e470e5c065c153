// Package flows holds the request flows behind the root Engine: credential
// verification, login, token validation, refresh, logout and registration.
//
// Each flow is a RunX function taking a Deps struct of plain values and
// callbacks, so this package never imports the root package. Failures come
// back either as the caller-supplied sentinel errors or as a FailureKind the
// root maps to its own errors, metrics and audit events.
package flows
