package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// newTestPasswordService returns a bcrypt service at the minimum cost so
// hashing takes milliseconds instead of ~250ms.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceWithCost(bcrypt.MinCost)
}

// =========================================================================
// bcrypt
// =========================================================================

func TestBcrypt_HashLooksBcryptAndIsSalted(t *testing.T) {
	ps := newTestPasswordService()

	hash1, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	hash2, _ := ps.Hash("password123")

	if !strings.HasPrefix(hash1, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash1)
	}
	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password (salt must be random)")
	}
}

func TestBcrypt_RejectsPasswordOver72Bytes(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(strings.Repeat("a", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("Hash() 73 bytes error = %v, want ErrPasswordTooLong", err)
	}
	// 25 Hangul syllables are 75 bytes in UTF-8.
	if _, err := ps.Hash(strings.Repeat("비", 25)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("Hash() multibyte error = %v, want ErrPasswordTooLong", err)
	}
	if _, err := ps.Hash(strings.Repeat("a", 72)); err != nil {
		t.Fatalf("Hash() should accept a 72-byte password, got error: %v", err)
	}
}

func TestBcrypt_VerifyDistinguishesMismatchFromGarbage(t *testing.T) {
	ps := newTestPasswordService()
	hash, _ := ps.Hash("the-real-password")

	if err := ps.Verify(hash, "the-real-password"); err != nil {
		t.Errorf("Verify() correct password error = %v", err)
	}
	if err := ps.Verify(hash, "the-wrong-password"); !errors.Is(err, ErrMismatch) {
		t.Errorf("Verify() wrong password error = %v, want ErrMismatch", err)
	}

	// A corrupt stored hash is a different failure from a wrong password.
	err := ps.Verify("not-a-valid-bcrypt-hash", "password")
	if err == nil || errors.Is(err, ErrMismatch) {
		t.Errorf("Verify() garbage hash error = %v, want non-mismatch error", err)
	}
}

func TestNewPasswordServiceWithCost_ClampsInvalidCost(t *testing.T) {
	if got := NewPasswordServiceWithCost(1).cost; got != defaultCost {
		t.Errorf("cost = %d, want default %d", got, defaultCost)
	}
	if got := NewPasswordServiceWithCost(bcrypt.MinCost).cost; got != bcrypt.MinCost {
		t.Errorf("cost = %d, want %d", got, bcrypt.MinCost)
	}
}

// =========================================================================
// base64
// =========================================================================

func TestBase64_MatchesBrowserEncoding(t *testing.T) {
	// The browser app stored btoa("password123").
	got, err := Base64Encoder{}.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if got != "cGFzc3dvcmQxMjM=" {
		t.Errorf("Hash() = %q, want %q", got, "cGFzc3dvcmQxMjM=")
	}

	if err := (Base64Encoder{}).Verify("cGFzc3dvcmQxMjM=", "password123"); err != nil {
		t.Errorf("Verify() correct password error = %v", err)
	}
	if err := (Base64Encoder{}).Verify("cGFzc3dvcmQxMjM=", "password124"); !errors.Is(err, ErrMismatch) {
		t.Errorf("Verify() wrong password error = %v, want ErrMismatch", err)
	}
}

// =========================================================================
// scheme selection
// =========================================================================

func TestNewHasher(t *testing.T) {
	tests := []struct {
		scheme  string
		wantErr bool
	}{
		{scheme: "", wantErr: false},
		{scheme: "bcrypt", wantErr: false},
		{scheme: "base64", wantErr: false},
		{scheme: "md5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			h, err := NewHasher(tt.scheme, bcrypt.MinCost)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewHasher(%q) error = %v, wantErr %v", tt.scheme, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			stored, err := h.Hash("hello123")
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if err := h.Verify(stored, "hello123"); err != nil {
				t.Errorf("Verify() round trip error = %v", err)
			}
		})
	}
}
