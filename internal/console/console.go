// Package console is the operator-side core of the inventory ledger: the
// product cache, search, the single edit slot, quantity writes, the daily
// reconciliation view and report exports.
package console

import (
	"context"
	"log/slog"
	"time"

	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/remote"
)

// Service is everything the console needs from the inventory service.
type Service interface {
	Store
	Journal
	ReportSource
}

// Options configures a Console.
type Options struct {
	Role      ledger.Role
	Calendar  ledger.Calendar
	ExportDir string
	Notifier  Notifier
	Logger    *slog.Logger
}

// Console ties the components together. Every operation converts its failure
// into a notification and also returns it so callers can set an exit status.
type Console struct {
	role     ledger.Role
	cache    *ProductCache
	edit     *EditSession
	mutator  *Mutator
	ledger   *Ledger
	exporter *Exporter
	notifier Notifier
	logger   *slog.Logger
}

// New builds a console around svc.
func New(svc Service, opts Options) *Console {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	role := opts.Role
	if role == "" {
		role = ledger.RoleGuest
	}
	cache := NewProductCache(svc)
	return &Console{
		role:     role,
		cache:    cache,
		edit:     NewEditSession(),
		mutator:  NewMutator(svc, cache, notifier, logger),
		ledger:   NewLedger(svc, opts.Calendar, logger),
		exporter: NewExporter(svc, opts.Calendar, opts.ExportDir, logger),
		notifier: notifier,
		logger:   logger,
	}
}

// Role returns the operator role.
func (c *Console) Role() ledger.Role { return c.role }

// Cache exposes the product cache.
func (c *Console) Cache() *ProductCache { return c.cache }

// Edit exposes the edit slot.
func (c *Console) Edit() *EditSession { return c.edit }

// Refresh reloads the product cache.
func (c *Console) Refresh(ctx context.Context) error {
	return c.report(c.cache.Refresh(ctx))
}

// Rows returns the annotated, filtered product list from the cache.
func (c *Console) Rows(view View) []Row {
	return Rows(c.cache.Snapshot(), view)
}

// NewSearch starts a debounced search bound to this console's cache.
func (c *Console) NewSearch(delay time.Duration, category ledger.Category, onResult func(string, []Row)) *Search {
	return NewSearch(c.cache, delay, category, onResult)
}

// BeginEdit opens the edit slot on a row.
func (c *Console) BeginEdit(productID string, mode ledger.Mode) error {
	if !c.role.CanAdjust() {
		return c.report(invalid("role", "guests cannot change quantities"))
	}
	return c.report(c.edit.Begin(productID, mode))
}

// UpdateEdit stores the raw value typed into the open row.
func (c *Console) UpdateEdit(value string) error {
	return c.report(c.edit.Update(value))
}

// CancelEdit closes the open row without writing.
func (c *Console) CancelEdit() error {
	return c.report(c.edit.Cancel())
}

// CommitEdit submits the open row.
func (c *Console) CommitEdit(ctx context.Context) error {
	pending := c.edit.Current()
	if err := c.edit.Commit(ctx, c.mutator.ApplyDelta); err != nil {
		return c.report(err)
	}
	c.notify(LevelInfo, quantityMessage(pending.Mode))
	return nil
}

// Adjust runs a whole edit cycle for one row. A failed commit leaves the row
// in Editing with value retained, as CommitEdit does.
func (c *Console) Adjust(ctx context.Context, productID string, mode ledger.Mode, value string) error {
	if err := c.BeginEdit(productID, mode); err != nil {
		return err
	}
	if err := c.UpdateEdit(value); err != nil {
		return err
	}
	return c.CommitEdit(ctx)
}

// AddProduct creates a product. In a category view the view's category is forced.
func (c *Console) AddProduct(ctx context.Context, input ledger.NewProduct, view ledger.Category) (ledger.Product, error) {
	if !c.role.CanAdjust() {
		return ledger.Product{}, c.report(invalid("role", "guests cannot add products"))
	}
	if view != ledger.CategoryNone {
		input.Category = view
	}
	created, err := c.mutator.AddProduct(ctx, input)
	if err != nil {
		return ledger.Product{}, c.report(err)
	}
	c.notify(LevelInfo, "Product added")
	return created, nil
}

// Archive soft-deletes an active product.
func (c *Console) Archive(ctx context.Context, productID string) error {
	if !c.role.CanArchive() {
		return c.report(invalid("role", "only admins can archive products"))
	}
	if err := c.mutator.Archive(ctx, productID); err != nil {
		return c.report(err)
	}
	c.notify(LevelInfo, "Product archived")
	return nil
}

// Purge permanently deletes an archived product.
func (c *Console) Purge(ctx context.Context, productID string) error {
	if !c.role.CanArchive() {
		return c.report(invalid("role", "only admins can delete products"))
	}
	if err := c.mutator.Purge(ctx, productID); err != nil {
		return c.report(err)
	}
	c.notify(LevelInfo, "Product permanently deleted")
	return nil
}

// EntriesForDay returns the reconciliation rows for a YYYY-MM-DD day.
func (c *Console) EntriesForDay(ctx context.Context, key string) ([]ledger.Entry, error) {
	entries, err := c.ledger.EntriesForDay(ctx, key)
	return entries, c.report(err)
}

// EntriesForDate returns the reconciliation rows for the day of t.
func (c *Console) EntriesForDate(ctx context.Context, t time.Time) ([]ledger.Entry, error) {
	entries, err := c.ledger.EntriesForDate(ctx, t)
	return entries, c.report(err)
}

// StockOn returns every product's row for the day of t.
func (c *Console) StockOn(ctx context.Context, t time.Time) ([]ledger.Entry, error) {
	entries, err := c.ledger.StockOn(ctx, t)
	return entries, c.report(err)
}

// StockOnDay returns every product's row for a YYYY-MM-DD day.
func (c *Console) StockOnDay(ctx context.Context, key string) ([]ledger.Entry, error) {
	entries, err := c.ledger.StockOnDay(ctx, key)
	return entries, c.report(err)
}

// Export downloads a report and returns the saved path.
func (c *Console) Export(ctx context.Context, r ledger.Range, format remote.Format) (string, error) {
	path, err := c.exporter.Export(ctx, r, format)
	if err != nil {
		return "", c.report(err)
	}
	c.notify(LevelInfo, "Report saved to "+path)
	return path, nil
}

func (c *Console) report(err error) error {
	if err != nil {
		c.notifier.Notify(Notification{Level: LevelError, Message: failureMessage(err), Err: err})
	}
	return err
}

func (c *Console) notify(level Level, message string) {
	c.notifier.Notify(Notification{Level: level, Message: message})
}

func quantityMessage(mode ledger.Mode) string {
	if mode == ledger.ModeSell {
		return "Stock sold"
	}
	return "Stock added"
}
