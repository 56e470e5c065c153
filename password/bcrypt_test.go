package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashAndVerify(t *testing.T) {
	h, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt failed: %v", err)
	}

	encoded, err := h.Hash("wonderland")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !h.Recognizes(encoded) {
		t.Fatalf("expected bcrypt prefix, got %q", encoded)
	}

	ok, err := h.Verify("wonderland", encoded)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = h.Verify("looking-glass", encoded)
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, got ok=%v err=%v", ok, err)
	}
}

func TestBcryptVerifiesTwoBPrefix(t *testing.T) {
	h, _ := NewBcrypt(bcrypt.MinCost)
	encoded, err := h.Hash("wonderland")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	twoB := "$2b$" + strings.TrimPrefix(encoded, "$2a$")

	ok, err := h.Verify("wonderland", twoB)
	if err != nil || !ok {
		t.Fatalf("expected $2b$ hash to verify, got ok=%v err=%v", ok, err)
	}
}

func TestBcryptRejectsLongPassword(t *testing.T) {
	h, _ := NewBcrypt(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("a", 73)); err == nil {
		t.Fatal("expected error for password over 72 bytes")
	}
}

func TestBcryptCostBounds(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected error for cost above max")
	}
	h, err := NewBcrypt(0)
	if err != nil {
		t.Fatalf("NewBcrypt(0) failed: %v", err)
	}
	if h.Cost() != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", h.Cost())
	}
}

func TestBcryptVerifyMalformed(t *testing.T) {
	h, _ := NewBcrypt(bcrypt.MinCost)
	if _, err := h.Verify("x", "$2a$short"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestBcryptNeedsRehash(t *testing.T) {
	low, _ := NewBcrypt(bcrypt.MinCost)
	hash, err := low.Hash("wonderland")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if low.NeedsRehash(hash) {
		t.Fatal("expected matching cost to be kept")
	}

	high, _ := NewBcrypt(bcrypt.MinCost + 1)
	if !high.NeedsRehash(hash) {
		t.Fatal("expected cost change to need a rehash")
	}
	if !high.NeedsRehash("not-a-hash") {
		t.Fatal("expected malformed hash to need a rehash")
	}
}
