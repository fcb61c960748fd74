package domain

import (
	"math"
	"testing"
)

var (
	gameA = Product{ID: 1, Name: "A", Price: 10000}
	gameB = Product{ID: 2, Name: "B", Price: 15000}
)

func TestCart_Totals(t *testing.T) {
	c := NewCart(nil)
	c.AddItem(gameA, 2)
	c.AddItem(gameB, 1)

	if got := c.Subtotal(); got != 35000 {
		t.Fatalf("subtotal: got %d", got)
	}
	if got := c.ShippingCost(DefaultShippingPolicy); got != 5000 {
		t.Fatalf("shipping: got %d", got)
	}
	if got := c.FinalTotal(DefaultShippingPolicy); got != 40000 {
		t.Fatalf("final: got %d", got)
	}
	if got := c.ItemCount(); got != 3 {
		t.Fatalf("count: got %d", got)
	}

	c.SetQuantity(gameA.ID, 3)
	if got := c.Subtotal(); got != 45000 {
		t.Fatalf("subtotal after update: got %d", got)
	}
	// still below the free threshold
	if got := c.ShippingCost(DefaultShippingPolicy); got != 5000 {
		t.Fatalf("shipping after update: got %d", got)
	}
	if got := c.FinalTotal(DefaultShippingPolicy); got != 50000 {
		t.Fatalf("final after update: got %d", got)
	}
}

func TestCart_FreeShippingAtThreshold(t *testing.T) {
	c := NewCart(nil)
	c.AddItem(Product{ID: 7, Price: 25000}, 2)

	if got := c.ShippingCost(DefaultShippingPolicy); got != 0 {
		t.Fatalf("expected free shipping at threshold, got %d", got)
	}
	if got := c.FinalTotal(DefaultShippingPolicy); got != 50000 {
		t.Fatalf("final: got %d", got)
	}
}

func TestCart_AddMerges(t *testing.T) {
	c := NewCart(nil)
	c.AddItem(gameA, 1)
	c.AddItem(gameA, 2)

	if len(c.Items) != 1 {
		t.Fatalf("expected single line, got %d", len(c.Items))
	}
	if c.Quantity(gameA.ID) != 3 {
		t.Fatalf("expected quantity 3, got %d", c.Quantity(gameA.ID))
	}
}

func TestCart_SetQuantityZeroRemoves(t *testing.T) {
	c := NewCart(nil)
	c.AddItem(gameA, 1)
	c.AddItem(gameB, 1)

	c.SetQuantity(gameA.ID, 0)
	if c.Quantity(gameA.ID) != 0 || len(c.Items) != 1 {
		t.Fatalf("expected A removed: %+v", c.Items)
	}

	c.SetQuantity(99, 4)
	if len(c.Items) != 1 {
		t.Fatalf("unknown id must not add a line")
	}

	c.RemoveItem(99)
	c.RemoveItem(gameB.ID)
	if c.ItemCount() != 0 || c.Subtotal() != 0 {
		t.Fatalf("expected empty cart")
	}
}

func TestCart_EmptyPaysShipping(t *testing.T) {
	c := NewCart(nil)
	if c.FinalTotal(DefaultShippingPolicy) != DefaultShippingPolicy.FlatFee {
		t.Fatalf("expected flat fee on empty cart")
	}
}

func TestCart_SnapshotIsIndependent(t *testing.T) {
	c := NewCart(nil)
	c.AddItem(gameA, 1)
	snap := c.Snapshot()

	c.SetQuantity(gameA.ID, 5)
	if snap[0].Quantity != 1 {
		t.Fatalf("snapshot changed with cart")
	}
}

func TestCart_OverflowGuards(t *testing.T) {
	c := NewCart(nil)
	c.AddItem(gameA, 1)
	c.AddItem(gameB, 1)

	if c.CanSet(gameA.ID, 1e15) {
		t.Fatalf("line total above int64 accepted")
	}
	if !c.CanSet(gameA.ID, 3) || !c.CanSet(gameA.ID, 0) || !c.CanSet(99, 1e15) {
		t.Fatalf("representable update rejected")
	}
	if c.CanAdd(gameA, math.MaxInt64) {
		t.Fatalf("quantity above int64 accepted")
	}

	// each line fits on its own but the sum does not
	big := Product{ID: 3, Price: 1}
	c = NewCart(nil)
	c.AddItem(big, math.MaxInt64-10)
	if !c.CanAdd(big, 10) {
		t.Fatalf("quantity at the limit rejected")
	}
	if c.CanAdd(gameA, 1) {
		t.Fatalf("subtotal above int64 accepted")
	}
}
