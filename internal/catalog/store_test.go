package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/bookreview/internal/auth"
	"github.com/sakif/bookreview/internal/model"
	"github.com/sakif/bookreview/internal/repository"
	"github.com/sakif/bookreview/internal/repository/memory"
	"github.com/sakif/bookreview/internal/repository/sqlite"
)

// =========================================================================
// TEST HELPERS
// =========================================================================

// testClock ticks one second per call so every record gets a distinct,
// increasing timestamp and "newest"/"oldest" orderings are deterministic.
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// newTestStoreOn builds a Store over kv with fast bcrypt, a ticking clock and
// sequential ids ("id-1", "id-2", ...).
func newTestStoreOn(t *testing.T, kv repository.KeyValueStore) *Store {
	t.Helper()
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	n := 0
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(kv,
		WithLogger(logger),
		WithPasswordHasher(auth.NewPasswordServiceWithCost(bcrypt.MinCost)),
		WithClock(clock.now),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)
}

func newTestStore(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	kv := memory.New()
	return newTestStoreOn(t, kv), kv
}

// registerAndLogin creates a user and makes them the session.
func registerAndLogin(t *testing.T, s *Store, username, email string) *model.User {
	t.Helper()
	ctx := context.Background()
	if _, err := s.Register(ctx, username, email, "password123"); err != nil {
		t.Fatalf("Register(%s) error = %v", email, err)
	}
	u, err := s.Login(ctx, email, "password123")
	if err != nil {
		t.Fatalf("Login(%s) error = %v", email, err)
	}
	return u
}

func addTestBook(t *testing.T, s *Store, title, author, genre string) *model.Book {
	t.Helper()
	b, err := s.AddBook(context.Background(), model.BookInput{Title: title, Author: author, Genre: genre})
	if err != nil {
		t.Fatalf("AddBook(%q) error = %v", title, err)
	}
	return b
}

func addTestReview(t *testing.T, s *Store, bookID string, rating int) *model.Review {
	t.Helper()
	r, err := s.AddReview(context.Background(), bookID, rating, "worth reading", true)
	if err != nil {
		t.Fatalf("AddReview(%s, %d) error = %v", bookID, rating, err)
	}
	return r
}

func ptr[T any](v T) *T { return &v }

// =========================================================================
// PERSISTENCE TESTS
// =========================================================================

func TestCorruptCollectionIsTreatedAsEmpty(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	if err := kv.Set(ctx, KeyBooks, []byte("{not json")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	books, err := s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks() error = %v, want fail-soft nil", err)
	}
	if len(books) != 0 {
		t.Errorf("ListBooks() = %d books, want 0", len(books))
	}
}

func TestCorruptSessionIsAnonymous(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	if err := kv.Set(ctx, KeyCurrentUser, []byte(`"garbage"`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	u, err := s.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if u != nil {
		t.Errorf("CurrentUser() = %+v, want nil", u)
	}
}

func TestCollectionsUseDocumentedKeys(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	registerAndLogin(t, s, "kim", "kim@example.com")
	b := addTestBook(t, s, "Demian", "Hermann Hesse", "Fiction")
	addTestReview(t, s, b.ID, 5)

	keys, err := kv.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	want := []string{KeyBooks, KeyCurrentUser, KeyReviews, KeyUsers}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Errorf("Keys() = %v, want %v", keys, want)
	}
}

func TestSQLiteBackedStoreSurvivesReopen(t *testing.T) {
	path := t.TempDir() + "/catalog.db"
	ctx := context.Background()

	db, err := sqlite.New(path, "bookreview")
	if err != nil {
		t.Fatalf("sqlite.New() error = %v", err)
	}
	s := newTestStoreOn(t, db)
	registerAndLogin(t, s, "lee", "lee@example.com")
	b := addTestBook(t, s, "Cosmos", "Carl Sagan", "Science")
	db.Close()

	reopened, err := sqlite.New(path, "bookreview")
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	s2, err := Open(ctx, reopened)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, err := s2.GetBookByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBookByID() error = %v", err)
	}
	if got.Title != "Cosmos" {
		t.Errorf("Title = %q, want Cosmos", got.Title)
	}

	u, err := s2.CurrentUser(ctx)
	if err != nil || u == nil {
		t.Fatalf("CurrentUser() = %v, %v; want the persisted session", u, err)
	}
	if u.Email != "lee@example.com" {
		t.Errorf("session email = %q", u.Email)
	}
}
