package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := store.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || string(got) != "v1" {
		t.Fatalf("get: %q %v", got, err)
	}

	// returned slice is a copy
	got[0] = 'x'
	again, _ := store.Get(ctx, "k")
	if string(again) != "v1" {
		t.Fatalf("store mutated through returned slice: %q", again)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete")
	}
	// deleting twice is fine
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestScopedStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := Scoped(store, SessionPrefix("a"))
	b := Scoped(store, SessionPrefix("b"))

	if err := a.Set(ctx, KeyCart, []byte("A")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Get(ctx, KeyCart); !errors.Is(err, ErrNotFound) {
		t.Fatalf("session b sees session a data")
	}
	raw, err := store.Get(ctx, "session:a:cart")
	if err != nil || string(raw) != "A" {
		t.Fatalf("unexpected raw key layout: %q %v", raw, err)
	}
}

func TestJSON_CorruptReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, "bad", []byte("{not json"))

	var dst []int
	found, err := GetJSON(ctx, store, zap.NewNop(), "bad", &dst)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if found {
		t.Fatalf("corrupt value reported as found")
	}

	if err := SetJSON(ctx, store, "good", []int{1, 2}); err != nil {
		t.Fatal(err)
	}
	found, err = GetJSON(ctx, store, zap.NewNop(), "good", &dst)
	if err != nil || !found || len(dst) != 2 {
		t.Fatalf("roundtrip failed: %v %v %v", found, err, dst)
	}
}

func TestKeyedLocker_SerializesWriters(t *testing.T) {
	ctx := context.Background()
	locker := NewKeyedLocker()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = locker.WithLock(ctx, "k", func(ctx context.Context) error {
				v := counter
				v++
				counter = v
				return nil
			})
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected 50, got %d", counter)
	}
}

func TestKeyedLocker_Reentrant(t *testing.T) {
	ctx := context.Background()
	locker := NewKeyedLocker()
	err := locker.WithLock(ctx, "k", func(ctx context.Context) error {
		return locker.WithLock(ctx, "k", func(ctx context.Context) error {
			return errors.New("inner")
		})
	})
	if err == nil || err.Error() != "inner" {
		t.Fatalf("expected inner error, got %v", err)
	}
}
