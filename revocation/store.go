package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrUnavailable wraps backend failures.
var ErrUnavailable = errors.New("revocation store unavailable")

// Store is the revocation set consulted by refresh and written by logout.
//
// Implementations must be safe for concurrent use. Revoke is idempotent and
// accepts any string.
type Store interface {
	Contains(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
}

// Fingerprint returns the storage key for token.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
