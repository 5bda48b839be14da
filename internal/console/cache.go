package console

import (
	"context"
	"sync"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

// Catalog lists the full product set.
type Catalog interface {
	List(ctx context.Context) ([]ledger.Product, error)
}

// ProductCache mirrors the remote catalog. It is replaced wholesale on every
// refresh; no incremental patching is done.
type ProductCache struct {
	catalog Catalog

	mu       sync.RWMutex
	products []ledger.Product
	loaded   bool
}

// NewProductCache constructs an empty cache backed by catalog.
func NewProductCache(catalog Catalog) *ProductCache {
	return &ProductCache{catalog: catalog}
}

// Refresh replaces the cached set with a fresh listing. On failure the prior
// snapshot is kept and a *FetchError is returned. Concurrent refreshes are not
// coalesced; the last one to finish wins.
func (c *ProductCache) Refresh(ctx context.Context) error {
	products, err := c.catalog.List(ctx)
	if err != nil {
		return &FetchError{Op: "products", Err: err}
	}
	if products == nil {
		products = []ledger.Product{}
	}
	c.mu.Lock()
	c.products = products
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Loaded reports whether at least one refresh has succeeded.
func (c *ProductCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Snapshot returns a copy of every cached product, archived ones included.
func (c *ProductCache) Snapshot() []ledger.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ledger.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Lookup finds a cached product by id.
func (c *ProductCache) Lookup(id string) (ledger.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return ledger.Product{}, false
}

// Active returns the products that are not archived.
func (c *ProductCache) Active() []ledger.Product {
	return activeOnly(c.Snapshot())
}

// Archived returns the archived products.
func (c *ProductCache) Archived() []ledger.Product {
	var out []ledger.Product
	for _, p := range c.Snapshot() {
		if !p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

func activeOnly(products []ledger.Product) []ledger.Product {
	out := make([]ledger.Product, 0, len(products))
	for _, p := range products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out
}
