// Package cart keeps an in-memory shopping cart as ordered lines, one per
// product.
package cart

import (
	"math"

	"github.com/shopspring/decimal"
)

// Product is what gets added to a cart.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
}

// Line is one product in the cart. Quantity is always at least 1.
type Line struct {
	ID          string
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Ledger is not safe for concurrent use. See Registry.
type Ledger struct {
	lines map[string]*Line
	order []string
}

func NewLedger() *Ledger {
	return &Ledger{lines: make(map[string]*Line)}
}

// Add puts one more of p in the cart.
func (l *Ledger) Add(p Product) {
	if line, ok := l.lines[p.ID]; ok {
		if line.Quantity < math.MaxInt {
			line.Quantity++
		}

		return
	}

	l.lines[p.ID] = &Line{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		UnitPrice:   p.Price,
		Quantity:    1,
	}
	l.order = append(l.order, p.ID)
}

// Adjust changes the quantity of id by delta and drops the line when the
// quantity falls to zero or below. Growth saturates at math.MaxInt. Unknown
// ids are ignored.
func (l *Ledger) Adjust(id string, delta int) {
	line, ok := l.lines[id]
	if !ok {
		return
	}

	switch {
	case delta <= -line.Quantity:
		l.Remove(id)
	case delta > math.MaxInt-line.Quantity:
		line.Quantity = math.MaxInt
	default:
		line.Quantity += delta
	}
}

func (l *Ledger) Remove(id string) {
	if _, ok := l.lines[id]; !ok {
		return
	}

	delete(l.lines, id)

	for i, k := range l.order {
		if k == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// Lines returns a copy of the lines in the order they were first added.
func (l *Ledger) Lines() []Line {
	out := make([]Line, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.lines[id])
	}

	return out
}

func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, id := range l.order {
		total = total.Add(l.lines[id].Subtotal())
	}

	return total
}

func (l *Ledger) Len() int {
	return len(l.order)
}

// Quantity returns 0 for products not in the cart.
func (l *Ledger) Quantity(id string) int {
	if line, ok := l.lines[id]; ok {
		return line.Quantity
	}

	return 0
}
