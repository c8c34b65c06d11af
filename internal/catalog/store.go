// Package catalog is the book-review catalog: users, books, reviews, the
// current session, and every aggregate computed from them.
//
// PERSISTENCE MODEL:
// Each collection lives under one key of an injected
// repository.KeyValueStore, JSON-encoded:
//
//	users        → []model.User
//	books        → []model.Book
//	reviews      → []model.Review
//	current-user → model.User (absent when nobody is logged in)
//
// Every operation reads the whole collection it needs, changes an in-memory
// copy and writes the whole collection back. A mutex serialises operations
// so two of them never interleave their reads and writes, even when the HTTP
// API serves requests concurrently.
//
// Aggregates (average rating, review counts, popularity) are never stored;
// they are recomputed from the review collection on every call.
//
// ERRORS:
// Expected outcomes come back as *apperror.AppError (branch with errors.Is):
// ErrUnauthenticated, ErrDuplicateEmail, ErrDuplicateReview, ErrNotFound,
// ErrValidation, ErrInvalidCredentials. Anything else is a storage failure.
// A stored value that fails to decode is logged and treated as empty rather
// than failing the operation.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/sakif/bookreview/internal/auth"
	"github.com/sakif/bookreview/internal/repository"
)

// Persisted keys.
const (
	KeyUsers       = "users"
	KeyBooks       = "books"
	KeyReviews     = "reviews"
	KeyCurrentUser = "current-user"
)

// Store owns the catalog. Create one per process with New or Open and share
// the pointer; it is safe for concurrent use.
type Store struct {
	kv        repository.KeyValueStore
	passwords auth.PasswordHasher
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	rng       *rand.Rand

	mu sync.Mutex
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger for business events and fail-soft decodes.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithPasswordHasher selects how passwords are stored. Defaults to bcrypt.
func WithPasswordHasher(h auth.PasswordHasher) Option {
	return func(s *Store) { s.passwords = h }
}

// WithClock replaces time.Now, e.g. for deterministic ordering in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the xid generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithRand sets the randomness source used by SeedSampleData.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rng = r }
}

// New creates a Store over kv. It does not touch storage.
func New(kv repository.KeyValueStore, opts ...Option) *Store {
	s := &Store{
		kv:        kv,
		passwords: auth.NewPasswordService(),
		validate:  newValidator(),
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return xid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		seed := uint64(s.now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return s
}

// Open creates a Store and runs the start-up integrity pass.
func Open(ctx context.Context, kv repository.KeyValueStore, opts ...Option) (*Store, error) {
	s := New(kv, opts...)
	if _, err := s.ValidateIntegrity(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// loadList reads and decodes one collection. A missing key is an empty
// collection; so is a value that fails to decode (logged at warn).
func loadList[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: loading %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("stored collection is corrupt, treating as empty",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// saveList overwrites one collection.
func saveList[T any](ctx context.Context, s *Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("catalog: encoding %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("catalog: saving %s: %w", key, err)
	}
	return nil
}
