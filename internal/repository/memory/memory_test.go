package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/bookreview/internal/repository"
)

func TestStore_RoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Get(ctx, "books"); !errors.Is(err, repository.ErrKeyNotFound) {
		t.Fatalf("Get() on empty store error = %v, want ErrKeyNotFound", err)
	}

	value := []byte(`["x"]`)
	if err := s.Set(ctx, "books", value); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Mutating the caller's slice must not change what is stored.
	value[0] = '{'

	got, err := s.Get(ctx, "books")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `["x"]` {
		t.Errorf("Get() = %s, want [\"x\"]", got)
	}

	if err := s.Delete(ctx, "books"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "books"); !errors.Is(err, repository.ErrKeyNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrKeyNotFound", err)
	}
}

func TestStore_KeysSorted(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, k := range []string{"users", "books", "reviews"} {
		if err := s.Set(ctx, k, []byte("[]")); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	want := []string{"books", "reviews", "users"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}
