package password

import (
	"errors"
	"strings"
)

// ErrUnsupportedHash is returned when no configured hasher recognises a stored hash.
var ErrUnsupportedHash = errors.New("unsupported password hash format")

// Hasher produces and checks encoded password hashes.
//
// Verify returns (false, nil) for a well-formed hash that does not match and a non-nil
// error only when the encoded hash itself cannot be used.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
	// Recognizes reports whether encodedHash was produced by this algorithm.
	Recognizes(encodedHash string) bool
}

// Upgrader is implemented by hashers that can tell when a stored hash was
// produced with weaker settings than they currently use.
type Upgrader interface {
	NeedsRehash(encodedHash string) bool
}

// Multi hashes with Primary and verifies with whichever hasher recognises the hash.
type Multi struct {
	Primary Hasher
	Others  []Hasher
}

// Hash delegates to the primary hasher.
func (m Multi) Hash(password string) (string, error) {
	if m.Primary == nil {
		return "", ErrUnsupportedHash
	}
	return m.Primary.Hash(password)
}

// Verify picks the hasher that recognises encodedHash.
func (m Multi) Verify(password, encodedHash string) (bool, error) {
	h := m.lookup(encodedHash)
	if h == nil {
		return false, ErrUnsupportedHash
	}
	return h.Verify(password, encodedHash)
}

// Recognizes reports whether any configured hasher accepts encodedHash.
func (m Multi) Recognizes(encodedHash string) bool {
	return m.lookup(encodedHash) != nil
}

// NeedsRehash reports true for hashes the primary hasher did not produce and
// defers to the primary's own check otherwise.
func (m Multi) NeedsRehash(encodedHash string) bool {
	if m.Primary == nil {
		return false
	}
	if !m.Primary.Recognizes(encodedHash) {
		return true
	}
	if u, ok := m.Primary.(Upgrader); ok {
		return u.NeedsRehash(encodedHash)
	}
	return false
}

func (m Multi) lookup(encodedHash string) Hasher {
	if m.Primary != nil && m.Primary.Recognizes(encodedHash) {
		return m.Primary
	}
	for _, h := range m.Others {
		if h != nil && h.Recognizes(encodedHash) {
			return h
		}
	}
	return nil
}

func hasPrefixAny(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
