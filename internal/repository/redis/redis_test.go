package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/sakif/bookreview/internal/repository"
)

func newTestStore(t *testing.T, prefix string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(context.Background(), Options{Addr: mr.Addr(), Prefix: prefix})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestStore_SetGetDelete(t *testing.T) {
	s, mr := newTestStore(t, "test")
	ctx := context.Background()

	if _, err := s.Get(ctx, "books"); !errors.Is(err, repository.ErrKeyNotFound) {
		t.Fatalf("Get() on empty store error = %v, want ErrKeyNotFound", err)
	}

	if err := s.Set(ctx, "books", []byte(`[{"id":"b1"}]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// The value lands under the prefixed key with no TTL.
	raw, err := mr.Get("test:books")
	if err != nil {
		t.Fatalf("miniredis Get() error = %v", err)
	}
	if raw != `[{"id":"b1"}]` {
		t.Errorf("stored value = %s", raw)
	}
	if ttl := mr.TTL("test:books"); ttl != 0 {
		t.Errorf("TTL = %v, want none", ttl)
	}

	got, err := s.Get(ctx, "books")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != raw {
		t.Errorf("Get() = %s, want %s", got, raw)
	}

	if err := s.Delete(ctx, "books"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "books"); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
	if _, err := s.Get(ctx, "books"); !errors.Is(err, repository.ErrKeyNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrKeyNotFound", err)
	}
}

func TestStore_KeysOnlyUnderPrefix(t *testing.T) {
	s, mr := newTestStore(t, "catalog")
	ctx := context.Background()

	mr.Set("other:users", "[]")
	for _, k := range []string{"users", "reviews"} {
		if err := s.Set(ctx, k, []byte("[]")); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "reviews" || keys[1] != "users" {
		t.Errorf("Keys() = %v, want [reviews users]", keys)
	}
}

func TestNew_RequiresAddr(t *testing.T) {
	s, err := New(context.Background(), Options{})
	if err == nil || s != nil {
		t.Fatalf("expected constructor error for empty addr")
	}
}

func TestStore_ErrorsWhenServerGone(t *testing.T) {
	s, mr := newTestStore(t, "test")
	mr.Close()

	_, err := s.Get(context.Background(), "books")
	if err == nil {
		t.Fatal("Get() should fail when redis is down")
	}
	if errors.Is(err, repository.ErrKeyNotFound) {
		t.Errorf("a connection failure must not look like a missing key: %v", err)
	}
}
