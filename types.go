package tokenAuth

import (
	"context"
)

// UserRecord is an account as held by a [UserStore].
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

// NewUser is the input to [Engine.Register]. Password is plaintext and is
// hashed before it reaches the store.
type NewUser struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
	// IsActive defaults to true when nil.
	IsActive *bool
}

// UserStore looks up and creates accounts.
//
// GetUserByUsername must match exactly (case-sensitive) and return
// [ErrUserNotFound] for unknown names. CreateUser assigns ID and must return
// [ErrAccountExists] when the username or email is taken.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (UserRecord, error)
	CreateUser(ctx context.Context, user UserRecord) (UserRecord, error)
}

// PasswordHashUpdater is an optional [UserStore] extension. When the store
// implements it and Config.Password.UpgradeOnLogin is set, a successful
// password check replaces hashes made with outdated settings.
type PasswordHashUpdater interface {
	UpdatePasswordHash(ctx context.Context, userID int64, encodedHash string) error
}

// Identity is the authenticated principal carried by an access token.
type Identity struct {
	Username string `json:"username"`
	UserID   int64  `json:"id"`
	Role     string `json:"role"`
}

// TokenPair is returned by Login. Refresh fills only AccessToken and TokenType.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// TokenTypeBearer is the OAuth2 token_type reported with every pair.
const TokenTypeBearer = "bearer"
