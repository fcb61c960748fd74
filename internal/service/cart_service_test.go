package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"boardshop/internal/domain"
	"boardshop/internal/repository"
	"boardshop/internal/session"
)

func setupCart(t *testing.T) (*CartService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	return NewCartService(store, repository.NewKeyedLocker(), domain.DefaultShippingPolicy, zap.NewNop()), store
}

var (
	catan    = domain.Product{ID: 1, Name: "Catan", Price: 10000, CategoryID: 1}
	pandemic = domain.Product{ID: 2, Name: "Pandemic", Price: 15000, CategoryID: 4}
)

func TestCart_AddAndSummary(t *testing.T) {
	ctx := context.Background()
	cs, _ := setupCart(t)
	sess := session.New()

	if _, err := cs.AddItem(ctx, sess, catan, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	sum, err := cs.AddItem(ctx, sess, pandemic, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sum.Subtotal != 35000 || sum.ShippingCost != 5000 || sum.FinalTotal != 40000 || sum.TotalItems != 3 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	sum, err = cs.SetQuantity(ctx, sess, catan.ID, 3)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if sum.Subtotal != 45000 || sum.FinalTotal != 50000 {
		t.Fatalf("unexpected summary after update: %+v", sum)
	}

	// reload from the store
	got, err := cs.Summary(ctx, sess)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.Subtotal != 45000 || len(got.Items) != 2 {
		t.Fatalf("persisted cart differs: %+v", got)
	}
}

func TestCart_AddRejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	cs, _ := setupCart(t)
	sess := session.New()

	if _, err := cs.AddItem(ctx, sess, catan, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := cs.AddItem(ctx, sess, catan, -3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCart_RejectsOverflowingTotals(t *testing.T) {
	ctx := context.Background()
	cs, _ := setupCart(t)
	sess := session.New()

	if _, err := cs.AddItem(ctx, sess, catan, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := cs.SetQuantity(ctx, sess, catan.ID, 1e15); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := cs.AddItem(ctx, sess, catan, 1e15); !errors.Is(err, ErrCartTotalTooLarge) {
		t.Fatalf("expected total too large, got %v", err)
	}

	sum, err := cs.Summary(ctx, sess)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Subtotal != 20000 || sum.TotalItems != 2 {
		t.Fatalf("cart changed after rejected update: %+v", sum)
	}
}

func TestCart_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	cs, _ := setupCart(t)
	s1, s2 := session.New(), session.New()

	if _, err := cs.AddItem(ctx, s1, catan, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	sum, err := cs.Summary(ctx, s2)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalItems != 0 {
		t.Fatalf("other session sees items: %+v", sum)
	}
}

func TestCart_CorruptValueLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	cs, store := setupCart(t)
	sess := session.New()

	if err := store.Set(ctx, repository.SessionPrefix(sess.ID)+repository.KeyCart, []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sum, err := cs.Summary(ctx, sess)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalItems != 0 || sum.FinalTotal != domain.DefaultShippingPolicy.FlatFee {
		t.Fatalf("expected empty cart, got %+v", sum)
	}

	// first mutation overwrites the corrupt value
	if _, err := cs.AddItem(ctx, sess, catan, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	sum, _ = cs.Summary(ctx, sess)
	if sum.TotalItems != 1 {
		t.Fatalf("expected 1 item, got %+v", sum)
	}
}

func TestCart_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	cs, _ := setupCart(t)
	sess := session.New()

	_, _ = cs.AddItem(ctx, sess, catan, 1)
	_, _ = cs.AddItem(ctx, sess, pandemic, 1)

	sum, err := cs.RemoveItem(ctx, sess, 42)
	if err != nil || sum.TotalItems != 2 {
		t.Fatalf("remove of absent id: %v %+v", err, sum)
	}
	sum, err = cs.RemoveItem(ctx, sess, catan.ID)
	if err != nil || sum.TotalItems != 1 {
		t.Fatalf("remove: %v %+v", err, sum)
	}
	if err := cs.Clear(ctx, sess); err != nil {
		t.Fatalf("clear: %v", err)
	}
	sum, _ = cs.Summary(ctx, sess)
	if sum.TotalItems != 0 {
		t.Fatalf("expected empty cart after clear")
	}
}

func TestCart_ConcurrentAddsAreNotLost(t *testing.T) {
	ctx := context.Background()
	cs, _ := setupCart(t)
	sess := session.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cs.AddItem(ctx, sess, catan, 1)
		}()
	}
	wg.Wait()

	sum, _ := cs.Summary(ctx, sess)
	if sum.TotalItems != 20 {
		t.Fatalf("expected 20 items, got %d", sum.TotalItems)
	}
}
