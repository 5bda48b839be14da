package inventory

import (
	"context"
	"sort"
	"sync"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

// MemoryRepository keeps products and ledger rows in process memory. A
// transaction works on a copy that replaces the state only on success.
type MemoryRepository struct {
	mu    sync.Mutex
	state memoryState
}

type memoryState struct {
	seq      int64
	products []ledger.Product
	entries  []memoryEntry
}

type memoryEntry struct {
	day   string
	entry ledger.Entry
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (s memoryState) clone() memoryState {
	out := memoryState{seq: s.seq}
	out.products = append([]ledger.Product(nil), s.products...)
	out.entries = append([]memoryEntry(nil), s.entries...)
	return out
}

// WithTx runs fn against a private copy of the state.
func (r *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	work := r.state.clone()
	if err := fn(ctx, &memoryTx{state: &work}); err != nil {
		return err
	}
	r.state = work
	return nil
}

// ListProducts returns products in creation order.
func (r *MemoryRepository) ListProducts(context.Context) ([]ledger.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ledger.Product{}, r.state.products...), nil
}

// ListEntries returns rows inside filter ordered by day, then insertion.
func (r *MemoryRepository) ListEntries(_ context.Context, filter EntryFilter) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]memoryEntry, 0, len(r.state.entries))
	for _, e := range r.state.entries {
		if filter.Includes(e.day) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].day < matched[j].day })
	out := make([]ledger.Entry, len(matched))
	for i, e := range matched {
		out[i] = e.entry
	}
	return out, nil
}

// LatestEntries returns the newest row per product on or before day.
func (r *MemoryRepository) LatestEntries(_ context.Context, day string) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := map[string]memoryEntry{}
	var order []string
	for _, e := range r.state.entries {
		if e.day > day {
			continue
		}
		prev, seen := latest[e.entry.ProductID]
		if !seen {
			order = append(order, e.entry.ProductID)
		}
		if !seen || e.day >= prev.day {
			latest[e.entry.ProductID] = e
		}
	}
	out := make([]ledger.Entry, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id].entry)
	}
	return out, nil
}

type memoryTx struct {
	state *memoryState
}

func (tx *memoryTx) NextSequence(context.Context) (int64, error) {
	tx.state.seq++
	return tx.state.seq, nil
}

func (tx *memoryTx) InsertProduct(_ context.Context, p ledger.Product) error {
	tx.state.products = append(tx.state.products, p)
	return nil
}

func (tx *memoryTx) GetProductForUpdate(_ context.Context, id string) (ledger.Product, error) {
	for _, p := range tx.state.products {
		if p.ID == id {
			return p, nil
		}
	}
	return ledger.Product{}, ErrProductNotFound
}

func (tx *memoryTx) UpdateProduct(_ context.Context, p ledger.Product) error {
	for i := range tx.state.products {
		if tx.state.products[i].ID == p.ID {
			tx.state.products[i] = p
			return nil
		}
	}
	return ErrProductNotFound
}

func (tx *memoryTx) DeleteProduct(_ context.Context, id string) error {
	for i := range tx.state.products {
		if tx.state.products[i].ID == id {
			tx.state.products = append(tx.state.products[:i:i], tx.state.products[i+1:]...)
			return nil
		}
	}
	return ErrProductNotFound
}

func (tx *memoryTx) GetEntryForUpdate(_ context.Context, productID, day string) (ledger.Entry, error) {
	for _, e := range tx.state.entries {
		if e.day == day && e.entry.ProductID == productID {
			return e.entry, nil
		}
	}
	return ledger.Entry{}, ErrEntryNotFound
}

func (tx *memoryTx) UpsertEntry(_ context.Context, day string, entry ledger.Entry) error {
	for i, e := range tx.state.entries {
		if e.day == day && e.entry.ProductID == entry.ProductID {
			tx.state.entries[i].entry = entry
			return nil
		}
	}
	tx.state.entries = append(tx.state.entries, memoryEntry{day: day, entry: entry})
	return nil
}

var _ RepositoryPort = (*MemoryRepository)(nil)
