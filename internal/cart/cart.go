// Package cart models the client side of a sale: the staged cart a
// cashier builds before submission, and the optimistic local inventory
// mirror the UI reads for instant feedback. The mirror is an
// approximation; the authoritative stock deduction happens in checkout,
// and the mirror must be reconciled with server state after each commit.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/incashhq/incash-server/internal/checkout"
	"github.com/incashhq/incash-server/internal/model"
)

// Line is one staged purchase in the cart.
type Line struct {
	Product  model.Product
	Quantity int
}

// Cart is the pre-commit working set. It is ephemeral: discarded after
// a submission succeeds or is abandoned.
type Cart struct {
	lines []Line
}

// Add stages a product: an existing line gains one unit, a new product
// enters with quantity 1.
func (c *Cart) Add(p model.Product) {
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: 1})
}

// UpdateQuantity applies a delta to a line's quantity, clamped at zero.
// A line reaching zero is removed.
func (c *Cart) UpdateQuantity(productID string, delta int) {
	for i := range c.lines {
		if c.lines[i].Product.ID != productID {
			continue
		}
		q := c.lines[i].Quantity + delta
		if q <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		} else {
			c.lines[i].Quantity = q
		}
		return
	}
}

// Remove drops a line entirely.
func (c *Cart) Remove(productID string) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns the staged lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// TotalAmount sums price*quantity over the staged lines at current
// catalog prices. The committed total may differ if prices change
// before submission; checkout snapshots the authoritative prices.
func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Request builds the submission payload for the transaction processor.
func (c *Cart) Request(userID, paymentMethod string) checkout.Request {
	items := make([]checkout.Line, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, checkout.Line{ProductID: l.Product.ID, Quantity: l.Quantity})
	}
	return checkout.Request{Items: items, UserID: userID, PaymentMethod: paymentMethod}
}

// Mirror is the client's optimistic local copy of inventory.
type Mirror struct {
	order    []string
	products map[string]model.Product
}

// NewMirror seeds a mirror from a product listing.
func NewMirror(products []model.Product) *Mirror {
	m := &Mirror{products: make(map[string]model.Product, len(products))}
	m.Reconcile(products)
	return m
}

// Products returns the mirrored inventory, newest additions first.
func (m *Mirror) Products() []model.Product {
	out := make([]model.Product, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.products[id])
	}
	return out
}

// Add inserts a locally created product at the front of the mirror.
func (m *Mirror) Add(p model.Product) {
	if _, ok := m.products[p.ID]; !ok {
		m.order = append([]string{p.ID}, m.order...)
	}
	m.products[p.ID] = p
}

// SetStock sets a mirrored product's stock to an absolute value.
func (m *Mirror) SetStock(productID string, stock int) {
	if p, ok := m.products[productID]; ok {
		p.Stock = stock
		m.products[productID] = p
	}
}

// Checkout applies the cart optimistically: mirrored stock drops by the
// cart quantities, floored at zero, and the cart is cleared.
func (m *Mirror) Checkout(c *Cart) {
	for _, l := range c.Lines() {
		p, ok := m.products[l.Product.ID]
		if !ok {
			continue
		}
		p.Stock -= l.Quantity
		if p.Stock < 0 {
			p.Stock = 0
		}
		m.products[l.Product.ID] = p
	}
	c.Clear()
}

// Reconcile replaces the mirror with the authoritative server state.
// Clients call this after each committed checkout instead of trusting
// the optimistic deduction indefinitely.
func (m *Mirror) Reconcile(products []model.Product) {
	m.order = m.order[:0]
	m.products = make(map[string]model.Product, len(products))
	for _, p := range products {
		m.order = append(m.order, p.ID)
		m.products[p.ID] = p
	}
}
