// Package auth turns passwords into the representation stored on a User
// and checks login attempts against it.
//
// Two schemes exist:
//
//	bcrypt  → PasswordService, the default for new catalogs
//	base64  → Base64Encoder, the reversible encoding the legacy browser app
//	          used; only for reading catalogs exported from it
//
// The scheme is picked by configuration (passwordScheme) and injected into
// the catalog as a PasswordHasher.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's input limit. It counts bytes, not characters.
const MaxPasswordBytes = 72

var (
	// ErrMismatch is returned by Verify when the password does not match.
	ErrMismatch = errors.New("auth: invalid password")
	// ErrPasswordTooLong is returned by Hash for input over MaxPasswordBytes.
	ErrPasswordTooLong = fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
)

// PasswordHasher produces and checks stored password representations.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(stored, plaintext string) error
}

var (
	_ PasswordHasher = (*PasswordService)(nil)
	_ PasswordHasher = Base64Encoder{}
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on a
// modern machine: negligible for one login, expensive for brute force.
const defaultCost = 12

// PasswordService hashes with bcrypt.
//
// It's a struct (not free functions) so the cost can be injected; tests use
// bcrypt.MinCost (4) to stay fast.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// Costs outside bcrypt's accepted range fall back to the default.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is self-contained ($2a$<cost>$<salt><hash>), so it is stored
// as-is on the User record.
//
// Returns an error if the plaintext is longer than 72 bytes: bcrypt would
// silently truncate it.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify returns nil if plaintext matches the stored bcrypt hash and
// ErrMismatch if it does not. The comparison is constant-time.
func (p *PasswordService) Verify(stored, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// Base64Encoder stores base64(password), byte-compatible with catalogs
// exported from the legacy browser app. It is an encoding, not a hash.
type Base64Encoder struct{}

func (Base64Encoder) Hash(plaintext string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(plaintext)), nil
}

func (e Base64Encoder) Verify(stored, plaintext string) error {
	encoded, _ := e.Hash(plaintext)
	if subtle.ConstantTimeCompare([]byte(stored), []byte(encoded)) != 1 {
		return ErrMismatch
	}
	return nil
}

// NewHasher returns the hasher for a configured scheme name.
func NewHasher(scheme string, bcryptCost int) (PasswordHasher, error) {
	switch scheme {
	case "", "bcrypt":
		if bcryptCost == 0 {
			return NewPasswordService(), nil
		}
		return NewPasswordServiceWithCost(bcryptCost), nil
	case "base64":
		return Base64Encoder{}, nil
	default:
		return nil, fmt.Errorf("auth: unknown password scheme %q", scheme)
	}
}
