package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the smallest HS256 secret accepted by [NewManager].
const MinSecretLength = 32

// KindRefresh marks a refresh token. Access tokens carry no kind.
const KindRefresh = "refresh"

var (
	// ErrInvalidSignature is returned when the signature does not verify under the
	// configured secret and algorithm.
	ErrInvalidSignature = errors.New("token signature invalid")
	// ErrExpired is returned once the clock has reached the token's exp.
	ErrExpired = errors.New("token expired")
	// ErrMalformed is returned when the token structure or claims cannot be parsed.
	ErrMalformed = errors.New("token malformed")
)

// Config configures a [Manager]. Secret has no default and must be supplied.
type Config struct {
	Secret []byte
	Issuer string
	// Now overrides the wall clock. Nil means time.Now.
	Now func() time.Time
}

// Claims is the payload carried by every session token.
type Claims struct {
	UserID int64  `json:"id"`
	Role   string `json:"role"`
	Kind   string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// IsRefresh reports whether the claims were minted as a refresh token.
func (c *Claims) IsRefresh() bool {
	return c != nil && c.Kind == KindRefresh
}

// Manager encodes and decodes tokens with a single shared secret.
//
// Manager is immutable after construction and safe for concurrent use.
type Manager struct {
	secret []byte
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewManager validates cfg and returns a ready codec.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("hs256 secret must be at least %d bytes", MinSecretLength)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(now),
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}

	return &Manager{
		secret: secret,
		issuer: cfg.Issuer,
		now:    now,
		parser: jwt.NewParser(options...),
	}, nil
}

// Encode signs claims with exp = now + ttl. Registered time fields and the token id
// are always set by the codec; any caller-supplied values are overwritten.
func (m *Manager) Encode(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token ttl must be > 0")
	}
	if claims.Subject == "" {
		return "", errors.New("token subject required")
	}

	now := m.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = uuid.NewString()
	if m.issuer != "" {
		claims.Issuer = m.issuer
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Decode verifies the signature first and then the expiry.
func (m *Manager) Decode(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) && m.undecodableSignature(tokenStr) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}

// ExpiresAt reads exp without verifying the signature. It is only suitable for sizing
// storage entries, never for trust decisions.
func (m *Manager) ExpiresAt(tokenStr string) (time.Time, bool) {
	claims := &Claims{}
	if _, _, err := m.parser.ParseUnverified(tokenStr, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// undecodableSignature reports whether header and payload parse but the
// signature segment is not strict base64url, as happens when its final
// character gains non-zero padding bits.
func (m *Manager) undecodableSignature(tokenStr string) bool {
	if strings.Count(tokenStr, ".") != 2 {
		return false
	}
	if _, _, err := m.parser.ParseUnverified(tokenStr, &Claims{}); err != nil {
		return false
	}
	_, err := m.parser.DecodeSegment(tokenStr[strings.LastIndex(tokenStr, ".")+1:])
	return err != nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
