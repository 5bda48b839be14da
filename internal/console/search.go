package console

import (
	"sync"
	"time"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

// DefaultDebounce is the trailing delay between the last keystroke and a search.
const DefaultDebounce = 300 * time.Millisecond

// Row is a product annotated for display.
type Row struct {
	ledger.Product
	LowStock bool
}

// View narrows the product list.
type View struct {
	// Category limits rows to one category. Empty shows every category.
	Category ledger.Category
	Query    string
}

// Filter returns the active products whose SKU or name contains query,
// ignoring case. An empty query matches every active product.
func Filter(products []ledger.Product, query string) []ledger.Product {
	out := make([]ledger.Product, 0, len(products))
	for _, p := range products {
		if p.IsActive && p.Matches(query) {
			out = append(out, p)
		}
	}
	return out
}

// Rows applies the active filter, then the category view, then the search
// query, and annotates each product with its low-stock flag.
func Rows(products []ledger.Product, view View) []Row {
	if view.Category != ledger.CategoryNone {
		scoped := make([]ledger.Product, 0, len(products))
		for _, p := range products {
			if p.Category == view.Category {
				scoped = append(scoped, p)
			}
		}
		products = scoped
	}
	matched := Filter(products, view.Query)
	rows := make([]Row, len(matched))
	for i, p := range matched {
		rows[i] = Row{Product: p, LowStock: p.LowStock()}
	}
	return rows
}

// Debouncer runs only the last of a burst of calls, after a quiet period.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer constructs a trailing debouncer. A non-positive delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing any call still waiting.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop drops any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Search evaluates a query against the cache once typing settles.
type Search struct {
	cache     *ProductCache
	debouncer *Debouncer
	onResult  func(query string, rows []Row)

	mu   sync.Mutex
	view View
}

// NewSearch wires a debounced search. onResult receives every settled evaluation.
func NewSearch(cache *ProductCache, delay time.Duration, category ledger.Category, onResult func(string, []Row)) *Search {
	return &Search{
		cache:     cache,
		debouncer: NewDebouncer(delay),
		onResult:  onResult,
		view:      View{Category: category},
	}
}

// Type records the latest query text and schedules an evaluation.
func (s *Search) Type(query string) {
	s.mu.Lock()
	s.view.Query = query
	s.mu.Unlock()
	s.debouncer.Trigger(s.evaluate)
}

// Current evaluates the latest query immediately.
func (s *Search) Current() []Row {
	s.mu.Lock()
	view := s.view
	s.mu.Unlock()
	return Rows(s.cache.Snapshot(), view)
}

// Close stops any pending evaluation.
func (s *Search) Close() {
	s.debouncer.Stop()
}

func (s *Search) evaluate() {
	s.mu.Lock()
	view := s.view
	s.mu.Unlock()
	if s.onResult != nil {
		s.onResult(view.Query, Rows(s.cache.Snapshot(), view))
	}
}
