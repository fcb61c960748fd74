package domain

import "math"

// ShippingPolicy порог бесплатной доставки и фиксированный тариф
type ShippingPolicy struct {
	FreeThreshold int64 `json:"freeThreshold"`
	FlatFee       int64 `json:"flatFee"`
}

// DefaultShippingPolicy: free from 50000, otherwise 5000.
var DefaultShippingPolicy = ShippingPolicy{FreeThreshold: 50000, FlatFee: 5000}

// CartLineItem позиция корзины
type CartLineItem struct {
	Product  Product `json:"product"`
	Quantity int64   `json:"quantity"`
}

// LineTotal price × quantity of a single line.
func (li CartLineItem) LineTotal() int64 {
	return li.Product.Price * li.Quantity
}

// Cart holds at most one line item per product id, in insertion order.
// Totals are never stored; every read recomputes them from Items.
type Cart struct {
	Items []CartLineItem
}

// NewCart wraps a persisted item list. Nil is treated as empty.
func NewCart(items []CartLineItem) *Cart {
	if items == nil {
		items = []CartLineItem{}
	}
	return &Cart{Items: items}
}

func (c *Cart) indexOf(productID int64) int {
	for i, it := range c.Items {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

// AddItem increments the line for p or appends a new one.
func (c *Cart) AddItem(p Product, quantity int64) {
	if i := c.indexOf(p.ID); i >= 0 {
		c.Items[i].Quantity += quantity
		return
	}
	c.Items = append(c.Items, CartLineItem{Product: p, Quantity: quantity})
}

// fits reports whether the line for productID at price and quantity keeps
// the line total and the subtotal within int64.
func (c *Cart) fits(productID, price, quantity int64) bool {
	if price < 0 || quantity < 0 {
		return false
	}
	if price > 0 && quantity > math.MaxInt64/price {
		return false
	}
	total := price * quantity
	for _, it := range c.Items {
		if it.Product.ID == productID {
			continue
		}
		if total > math.MaxInt64-it.LineTotal() {
			return false
		}
		total += it.LineTotal()
	}
	return true
}

// CanAdd reports whether AddItem(p, quantity) keeps all totals representable.
func (c *Cart) CanAdd(p Product, quantity int64) bool {
	current := c.Quantity(p.ID)
	if quantity > math.MaxInt64-current {
		return false
	}
	return c.fits(p.ID, p.Price, current+quantity)
}

// CanSet reports whether SetQuantity(productID, quantity) keeps all totals representable.
// Removals and unknown ids always fit.
func (c *Cart) CanSet(productID, quantity int64) bool {
	i := c.indexOf(productID)
	if i < 0 || quantity <= 0 {
		return true
	}
	return c.fits(productID, c.Items[i].Product.Price, quantity)
}

// SetQuantity replaces the quantity; zero or below removes the line.
// Unknown product ids are ignored.
func (c *Cart) SetQuantity(productID, quantity int64) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	if i := c.indexOf(productID); i >= 0 {
		c.Items[i].Quantity = quantity
	}
}

// RemoveItem drops the line for productID if present.
func (c *Cart) RemoveItem(productID int64) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

func (c *Cart) Clear() {
	c.Items = []CartLineItem{}
}

// Quantity of productID in the cart, 0 if absent.
func (c *Cart) Quantity(productID int64) int64 {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

func (c *Cart) ItemCount() int64 {
	var n int64
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Subtotal() int64 {
	var sum int64
	for _, it := range c.Items {
		sum += it.LineTotal()
	}
	return sum
}

// ShippingCost is free at or above the policy threshold.
func (c *Cart) ShippingCost(p ShippingPolicy) int64 {
	if c.Subtotal() >= p.FreeThreshold {
		return 0
	}
	return p.FlatFee
}

func (c *Cart) FinalTotal(p ShippingPolicy) int64 {
	return c.Subtotal() + c.ShippingCost(p)
}

// Snapshot returns a deep copy of the line items.
func (c *Cart) Snapshot() []CartLineItem {
	out := make([]CartLineItem, len(c.Items))
	copy(out, c.Items)
	return out
}

// CartSummary корзина с вычисленными итогами
type CartSummary struct {
	Items        []CartLineItem `json:"items"`
	TotalItems   int64          `json:"totalItems"`
	Subtotal     int64          `json:"subtotal"`
	ShippingCost int64          `json:"shippingCost"`
	FinalTotal   int64          `json:"finalTotal"`
}

// Summarize computes all derived values under policy p.
func (c *Cart) Summarize(p ShippingPolicy) CartSummary {
	return CartSummary{
		Items:        c.Snapshot(),
		TotalItems:   c.ItemCount(),
		Subtotal:     c.Subtotal(),
		ShippingCost: c.ShippingCost(p),
		FinalTotal:   c.FinalTotal(p),
	}
}
