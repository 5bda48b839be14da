package console

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

// Store is the write side of the inventory service.
type Store interface {
	Catalog
	Add(ctx context.Context, input ledger.NewProduct) (ledger.Product, error)
	UpdateQuantity(ctx context.Context, productID string, mode ledger.Mode, amount int) error
	SoftDelete(ctx context.Context, productID string) error
	Delete(ctx context.Context, productID string) error
}

// Mutator sends writes to the service and re-fetches the whole catalog after
// each one that succeeds. It never computes quantities locally.
type Mutator struct {
	store    Store
	cache    *ProductCache
	notifier Notifier
	logger   *slog.Logger
	validate *validator.Validate
}

// NewMutator wires a mutator around store and cache.
func NewMutator(store Store, cache *ProductCache, notifier Notifier, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{store: store, cache: cache, notifier: notifier, logger: logger, validate: validator.New()}
}

// ApplyDelta requests an add or sell of amount units.
func (m *Mutator) ApplyDelta(ctx context.Context, productID string, mode ledger.Mode, amount int) error {
	if !mode.Valid() {
		return &ValidationError{Field: "mode", Message: "must be add or sell", Err: ledger.ErrInvalidMode}
	}
	if amount <= 0 {
		return invalid("quantity", "must be greater than zero")
	}
	if err := m.store.UpdateQuantity(ctx, productID, mode, amount); err != nil {
		return &MutationError{Op: "update quantity", ProductID: productID, Err: err}
	}
	m.refreshAfter(ctx, "update quantity")
	return nil
}

// AddProduct validates and creates a product. The service assigns id and sku.
func (m *Mutator) AddProduct(ctx context.Context, input ledger.NewProduct) (ledger.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := m.validate.Struct(input); err != nil {
		return ledger.Product{}, productValidation(err)
	}
	if !input.Category.Valid() {
		return ledger.Product{}, &ValidationError{Field: "category", Message: "must be Gold or Silver", Err: ledger.ErrInvalidCategory}
	}
	created, err := m.store.Add(ctx, input)
	if err != nil {
		return ledger.Product{}, &MutationError{Op: "add product", Err: err}
	}
	m.refreshAfter(ctx, "add product")
	return created, nil
}

// Archive soft-deletes an active product. Quantity is left untouched.
func (m *Mutator) Archive(ctx context.Context, productID string) error {
	p, ok := m.cache.Lookup(productID)
	if !ok {
		return invalid("product", "not found")
	}
	if !p.IsActive {
		return invalid("product", "already archived")
	}
	if err := m.store.SoftDelete(ctx, productID); err != nil {
		return &MutationError{Op: "archive product", ProductID: productID, Err: err}
	}
	m.refreshAfter(ctx, "archive product")
	return nil
}

// Purge permanently deletes an archived product.
func (m *Mutator) Purge(ctx context.Context, productID string) error {
	p, ok := m.cache.Lookup(productID)
	if !ok {
		return invalid("product", "not found")
	}
	if p.IsActive {
		return invalid("product", "archive the product before deleting it permanently")
	}
	if err := m.store.Delete(ctx, productID); err != nil {
		return &MutationError{Op: "delete product", ProductID: productID, Err: err}
	}
	m.refreshAfter(ctx, "delete product")
	return nil
}

// refreshAfter reloads the cache once a write succeeded. A failed reload does
// not undo the write, so it is reported but not returned.
func (m *Mutator) refreshAfter(ctx context.Context, op string) {
	if err := m.cache.Refresh(ctx); err != nil {
		m.logger.Warn("refresh after write failed", slog.String("op", op), slog.Any("error", err))
		if m.notifier != nil {
			m.notifier.Notify(Notification{Level: LevelError, Message: failureMessage(err), Err: err})
		}
	}
}

func productValidation(err error) *ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Message: "failed " + fe.Tag() + " check", Err: err}
	}
	return &ValidationError{Message: err.Error(), Err: err}
}
