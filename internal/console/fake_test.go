package console

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/remote"
)

var errRemote = errors.New("remote unavailable")

// fakeService is an in-memory inventory service.
type fakeService struct {
	mu       sync.Mutex
	products []ledger.Product
	entries  []ledger.Entry
	report   []byte

	listErr   error
	updateErr error
	exportErr error

	listCalls    int
	updateCalls  int
	exportCalls  int
	lastParams   url.Values
	lastDayQuery string
	seq          int
}

func newFakeService(products ...ledger.Product) *fakeService {
	return &fakeService{products: products, report: []byte("PK-document")}
}

func (f *fakeService) List(context.Context) ([]ledger.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]ledger.Product, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeService) Add(_ context.Context, input ledger.NewProduct) (ledger.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p := ledger.Product{
		ID:          fmt.Sprintf("id-%d", f.seq),
		SKU:         fmt.Sprintf("P-%04d", f.seq),
		Name:        ledger.CanonicalName(input.Name),
		Quantity:    input.Quantity,
		LowQuantity: input.LowQuantity,
		Category:    input.Category,
		IsActive:    true,
	}
	f.products = append(f.products, p)
	return p, nil
}

func (f *fakeService) UpdateQuantity(_ context.Context, id string, mode ledger.Mode, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.products {
		if f.products[i].ID != id {
			continue
		}
		if mode == ledger.ModeSell {
			if amount > f.products[i].Quantity {
				return errors.New("insufficient stock")
			}
			f.products[i].Quantity -= amount
		} else {
			f.products[i].Quantity += amount
		}
		return nil
	}
	return errors.New("not found")
}

func (f *fakeService) SoftDelete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].IsActive = false
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeService) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeService) Transactions(_ context.Context, day string) ([]ledger.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastDayQuery = day
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]ledger.Entry(nil), f.entries...), nil
}

func (f *fakeService) ProductsByDate(ctx context.Context, day string) ([]ledger.Entry, error) {
	return f.Transactions(ctx, day)
}

func (f *fakeService) Export(_ context.Context, _ remote.Format, params url.Values) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exportCalls++
	f.lastParams = params
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return f.report, nil
}

func (f *fakeService) quantity(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			return p.Quantity
		}
	}
	return -1
}
