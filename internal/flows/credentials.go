package flows

import (
	"context"
	"errors"
)

// UserRecord is the flow-local account shape.
type UserRecord struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	IsActive     bool
}

// CredentialFailureKind classifies why credentials were rejected.
type CredentialFailureKind int

const (
	CredentialFailureNone CredentialFailureKind = iota
	CredentialFailureUnknownUser
	CredentialFailureMismatch
	CredentialFailureLookup
)

// CredentialDeps captures credential verification dependencies.
type CredentialDeps struct {
	GetUserByUsername func(context.Context, string) (UserRecord, error)
	VerifyPassword    func(password, encodedHash string) (bool, error)
	// DummyHash is verified when the user does not exist so both paths cost one hash.
	DummyHash    string
	UserNotFound error

	// Rehash on a successful verify runs only when all three are set. Failures
	// are reported through Warn and never fail the verification.
	NeedsRehash        func(encodedHash string) bool
	HashPassword       func(password string) (string, error)
	UpdatePasswordHash func(ctx context.Context, userID int64, encodedHash string) error
	Warn               func(string, error)
}

// RunVerifyCredentials looks up username and checks password against the stored hash.
// Unknown user and wrong password are distinguishable only through the returned
// kind, which callers must not expose.
func RunVerifyCredentials(ctx context.Context, username, password string, deps CredentialDeps) (UserRecord, CredentialFailureKind, error) {
	user, err := deps.GetUserByUsername(ctx, username)
	if err != nil {
		if deps.UserNotFound != nil && errors.Is(err, deps.UserNotFound) {
			if deps.DummyHash != "" {
				_, _ = deps.VerifyPassword(password, deps.DummyHash)
			}
			return UserRecord{}, CredentialFailureUnknownUser, err
		}
		return UserRecord{}, CredentialFailureLookup, err
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return UserRecord{}, CredentialFailureMismatch, err
	}
	upgradeHash(ctx, &user, password, deps)
	return user, CredentialFailureNone, nil
}

func upgradeHash(ctx context.Context, user *UserRecord, password string, deps CredentialDeps) {
	if deps.NeedsRehash == nil || deps.HashPassword == nil || deps.UpdatePasswordHash == nil {
		return
	}
	if !deps.NeedsRehash(user.PasswordHash) {
		return
	}
	warn := deps.Warn
	if warn == nil {
		warn = func(string, error) {}
	}

	upgraded, err := deps.HashPassword(password)
	if err != nil {
		warn("password rehash failed", err)
		return
	}
	if err := deps.UpdatePasswordHash(ctx, user.ID, upgraded); err != nil {
		warn("password hash update failed", err)
		return
	}
	user.PasswordHash = upgraded
}
