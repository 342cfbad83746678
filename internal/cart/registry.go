package cart

import (
	"sync"

	"github.com/shopspring/decimal"
)

// View is a consistent read of one cart.
type View struct {
	Lines []Line
	Total decimal.Decimal
}

// Registry holds one Ledger per owner and serializes access to each.
type Registry struct {
	mu      sync.Mutex
	ledgers map[string]*Ledger
}

func NewRegistry() *Registry {
	return &Registry{ledgers: make(map[string]*Ledger)}
}

// Do runs fn with exclusive access to the owner's ledger and returns the
// resulting view.
func (r *Registry) Do(ownerID string, fn func(l *Ledger)) View {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.ledgers[ownerID]
	if !ok {
		l = NewLedger()
		r.ledgers[ownerID] = l
	}

	if fn != nil {
		fn(l)
	}

	return View{Lines: l.Lines(), Total: l.Total()}
}

func (r *Registry) View(ownerID string) View {
	return r.Do(ownerID, nil)
}

// Drop forgets the owner's cart, for example on sign-out.
func (r *Registry) Drop(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.ledgers, ownerID)
}
