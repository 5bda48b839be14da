package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListProducts(ctx context.Context) ([]ledger.Product, error)
	// ListEntries returns rows ordered by day, then by insertion.
	ListEntries(ctx context.Context, filter EntryFilter) ([]ledger.Entry, error)
	// LatestEntries returns, per product, the newest row on or before day.
	LatestEntries(ctx context.Context, day string) ([]ledger.Entry, error)
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	NextSequence(ctx context.Context) (int64, error)
	InsertProduct(ctx context.Context, p ledger.Product) error
	GetProductForUpdate(ctx context.Context, id string) (ledger.Product, error)
	UpdateProduct(ctx context.Context, p ledger.Product) error
	DeleteProduct(ctx context.Context, id string) error
	GetEntryForUpdate(ctx context.Context, productID, day string) (ledger.Entry, error)
	UpsertEntry(ctx context.Context, day string, e ledger.Entry) error
}

// ListCache caches the full product listing.
type ListCache interface {
	Products(ctx context.Context, loader func(context.Context) ([]ledger.Product, error)) ([]ledger.Product, error)
	Invalidate(ctx context.Context) error
}

// MetricsPort receives business counters.
type MetricsPort interface {
	RecordQuantityChange(mode string, amount int)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Calendar ledger.Calendar
	Now      func() time.Time
	Metrics  MetricsPort
}

// Service coordinates products and their daily ledger rows.
type Service struct {
	repo     RepositoryPort
	cache    ListCache
	cal      ledger.Calendar
	now      func() time.Time
	metrics  MetricsPort
	validate *validator.Validate
}

// NewService builds Service. cache may be nil.
func NewService(repo RepositoryPort, cache ListCache, cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, cache: cache, cal: cfg.Calendar, now: now, metrics: cfg.Metrics, validate: validator.New()}
}

// Calendar returns the ledger calendar.
func (s *Service) Calendar() ledger.Calendar { return s.cal }

// ListProducts returns every product, archived ones included.
func (s *Service) ListProducts(ctx context.Context) ([]ledger.Product, error) {
	if s.cache == nil {
		return s.repo.ListProducts(ctx)
	}
	return s.cache.Products(ctx, s.repo.ListProducts)
}

// AddProduct creates a product and opens its ledger row for today.
func (s *Service) AddProduct(ctx context.Context, input ledger.NewProduct) (ledger.Product, error) {
	input.Name = ledger.CanonicalName(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return ledger.Product{}, fmt.Errorf("%w: %s", ErrInvalidProduct, describeValidation(err))
	}
	if !input.Category.Valid() {
		return ledger.Product{}, fmt.Errorf("%w: %s", ErrInvalidProduct, ledger.ErrInvalidCategory)
	}
	today := s.cal.StartOfDay(s.now())
	day := s.cal.DayKey(today)
	var created ledger.Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextSequence(ctx)
		if err != nil {
			return err
		}
		created = ledger.Product{
			ID:          uuid.NewString(),
			SKU:         skuFor(input.Category, seq),
			Name:        input.Name,
			Quantity:    input.Quantity,
			LowQuantity: input.LowQuantity,
			Category:    input.Category,
			IsActive:    true,
		}
		if err := tx.InsertProduct(ctx, created); err != nil {
			return err
		}
		entry := openEntry(created, today, 0)
		entry.AddedQty = created.Quantity
		entry.ClosingQty = entry.ExpectedClosing()
		return tx.UpsertEntry(ctx, day, entry)
	})
	if err != nil {
		return ledger.Product{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// AdjustQuantity applies an add or sell to the product and today's ledger row.
func (s *Service) AdjustQuantity(ctx context.Context, id string, input QuantityInput) (ledger.Product, error) {
	if err := s.validate.Struct(input); err != nil {
		if failedTag(err, "lte") {
			return ledger.Product{}, ErrQuantityLimit
		}
		return ledger.Product{}, ErrInvalidQuantity
	}
	mode, amount, err := input.Delta()
	if err != nil {
		return ledger.Product{}, err
	}
	today := s.cal.StartOfDay(s.now())
	day := s.cal.DayKey(today)
	var updated ledger.Product
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return ErrProductArchived
		}
		if mode == ledger.ModeSell && amount > p.Quantity {
			return ErrNegativeStock
		}
		entry, err := s.todayEntry(ctx, tx, p, today, day)
		if err != nil {
			return err
		}
		if exceedsLimit(mode, amount, p, entry) {
			return ErrQuantityLimit
		}
		if mode == ledger.ModeAdd {
			p.Quantity += amount
			entry.AddedQty += amount
		} else {
			p.Quantity -= amount
			entry.SoldQty += amount
		}
		entry.ClosingQty = entry.ExpectedClosing()
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		updated = p
		return tx.UpsertEntry(ctx, day, entry)
	})
	if err != nil {
		return ledger.Product{}, err
	}
	s.invalidate(ctx)
	if s.metrics != nil {
		s.metrics.RecordQuantityChange(string(mode), amount)
	}
	return updated, nil
}

// Archive marks an active product inactive. Quantity is left untouched and
// today's ledger row records the archived state.
func (s *Service) Archive(ctx context.Context, id string) (ledger.Product, error) {
	today := s.cal.StartOfDay(s.now())
	day := s.cal.DayKey(today)
	var archived ledger.Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return ErrProductArchived
		}
		entry, err := s.todayEntry(ctx, tx, p, today, day)
		if err != nil {
			return err
		}
		p.IsActive = false
		entry.IsActive = false
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		archived = p
		return tx.UpsertEntry(ctx, day, entry)
	})
	if err != nil {
		return ledger.Product{}, err
	}
	s.invalidate(ctx)
	return archived, nil
}

// Delete permanently removes an archived product. Its ledger rows are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.IsActive {
			return ErrProductActive
		}
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Transactions returns the rows of one day, or every row when day is empty.
func (s *Service) Transactions(ctx context.Context, day string) ([]ledger.Entry, error) {
	filter := EntryFilter{}
	if day != "" {
		if _, err := s.cal.ParseDay(day); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDay, err)
		}
		filter = EntryFilter{FromDay: day, ToDay: day}
	}
	return s.repo.ListEntries(ctx, filter)
}

// ProductsByDate returns one row per product known on day. Products without
// movement that day carry their previous closing forward.
func (s *Service) ProductsByDate(ctx context.Context, day string) ([]ledger.Entry, error) {
	date, err := s.cal.ParseDay(day)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDay, err)
	}
	latest, err := s.repo.LatestEntries(ctx, day)
	if err != nil {
		return nil, err
	}
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}
	out := make([]ledger.Entry, 0, len(latest))
	for _, e := range latest {
		if s.cal.DayKey(e.Date) == day {
			out = append(out, e)
			continue
		}
		if !known[e.ProductID] {
			continue
		}
		out = append(out, ledger.Entry{
			Date:        date,
			ProductID:   e.ProductID,
			SKU:         e.SKU,
			ProductName: e.ProductName,
			Category:    e.Category,
			OpeningQty:  e.ClosingQty,
			ClosingQty:  e.ClosingQty,
			IsActive:    e.IsActive,
		})
	}
	return ledger.OrderForDisplay(out), nil
}

// EntriesInWindow returns the rows inside w, day by day, with active products
// first inside each day.
func (s *Service) EntriesInWindow(ctx context.Context, w ledger.Window) ([]ledger.Entry, error) {
	entries, err := s.repo.ListEntries(ctx, Window(s.cal, w))
	if err != nil {
		return nil, err
	}
	return s.orderByDay(entries), nil
}

// AuditDay checks every row of day against opening + added - sold.
func (s *Service) AuditDay(ctx context.Context, day string) (Audit, error) {
	entries, err := s.Transactions(ctx, day)
	if err != nil {
		return Audit{}, err
	}
	audit := Audit{Day: day, Rows: len(entries), CheckedAt: s.now()}
	for _, e := range entries {
		if !e.Balanced() {
			audit.Unbalanced = append(audit.Unbalanced, e)
		}
	}
	return audit, nil
}

func (s *Service) todayEntry(ctx context.Context, tx TxRepository, p ledger.Product, today time.Time, day string) (ledger.Entry, error) {
	entry, err := tx.GetEntryForUpdate(ctx, p.ID, day)
	if errors.Is(err, ErrEntryNotFound) {
		return openEntry(p, today, p.Quantity), nil
	}
	if err != nil {
		return ledger.Entry{}, err
	}
	entry.SKU, entry.ProductName, entry.Category = p.SKU, p.Name, p.Category
	return entry, nil
}

func (s *Service) orderByDay(entries []ledger.Entry) []ledger.Entry {
	sorted := make([]ledger.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := s.cal.DayKey(sorted[i].Date), s.cal.DayKey(sorted[j].Date)
		if di != dj {
			return di < dj
		}
		return sorted[i].IsActive && !sorted[j].IsActive
	})
	return sorted
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
}

func exceedsLimit(mode ledger.Mode, amount int, p ledger.Product, e ledger.Entry) bool {
	if mode == ledger.ModeAdd {
		return amount > ledger.MaxQuantity-p.Quantity || amount > ledger.MaxQuantity-e.AddedQty
	}
	return amount > ledger.MaxQuantity-e.SoldQty
}

func openEntry(p ledger.Product, day time.Time, opening int) ledger.Entry {
	return ledger.Entry{
		ID:          uuid.NewString(),
		Date:        day,
		ProductID:   p.ID,
		SKU:         p.SKU,
		ProductName: p.Name,
		Category:    p.Category,
		OpeningQty:  opening,
		ClosingQty:  opening,
		IsActive:    p.IsActive,
	}
}

func skuFor(c ledger.Category, seq int64) string {
	prefix := "P"
	switch c {
	case ledger.CategoryGold:
		prefix = "G"
	case ledger.CategorySilver:
		prefix = "S"
	}
	return fmt.Sprintf("%s-%04d", prefix, seq)
}

func failedTag(err error, tag string) bool {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return false
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
