package console

import (
	"context"
	"log/slog"
	"time"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

// Journal reads ledger rows from the service.
type Journal interface {
	Transactions(ctx context.Context, day string) ([]ledger.Entry, error)
	ProductsByDate(ctx context.Context, day string) ([]ledger.Entry, error)
}

// Ledger answers the daily reconciliation view.
type Ledger struct {
	journal Journal
	cal     ledger.Calendar
	logger  *slog.Logger
}

// NewLedger builds a reader that uses cal for every day boundary.
func NewLedger(journal Journal, cal ledger.Calendar, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{journal: journal, cal: cal, logger: logger}
}

// Calendar returns the calendar the ledger filters with.
func (l *Ledger) Calendar() ledger.Calendar { return l.cal }

// EntriesForDate returns the rows recorded on the calendar day of day, active
// products first. Archived rows are kept and only annotated.
func (l *Ledger) EntriesForDate(ctx context.Context, day time.Time) ([]ledger.Entry, error) {
	key := l.cal.DayKey(day)
	entries, err := l.journal.Transactions(ctx, key)
	if err != nil {
		return nil, &FetchError{Op: "transactions", Err: err}
	}
	return l.reconcile(key, entries), nil
}

// EntriesForDay is EntriesForDate for a YYYY-MM-DD key.
func (l *Ledger) EntriesForDay(ctx context.Context, key string) ([]ledger.Entry, error) {
	day, err := l.cal.ParseDay(key)
	if err != nil {
		return nil, &ValidationError{Field: "date", Message: "use YYYY-MM-DD", Err: err}
	}
	return l.EntriesForDate(ctx, day)
}

// StockOn returns one row per product known on day, including products that
// had no movement.
func (l *Ledger) StockOn(ctx context.Context, day time.Time) ([]ledger.Entry, error) {
	key := l.cal.DayKey(day)
	entries, err := l.journal.ProductsByDate(ctx, key)
	if err != nil {
		return nil, &FetchError{Op: "stock by date", Err: err}
	}
	return l.reconcile(key, entries), nil
}

// StockOnDay is StockOn for a YYYY-MM-DD key.
func (l *Ledger) StockOnDay(ctx context.Context, key string) ([]ledger.Entry, error) {
	day, err := l.cal.ParseDay(key)
	if err != nil {
		return nil, &ValidationError{Field: "date", Message: "use YYYY-MM-DD", Err: err}
	}
	return l.StockOn(ctx, day)
}

func (l *Ledger) reconcile(key string, entries []ledger.Entry) []ledger.Entry {
	day := l.cal.FilterDay(entries, key)
	for i := range day {
		if !day[i].Balanced() {
			l.logger.Warn("ledger row does not balance",
				slog.String("day", key),
				slog.String("sku", day[i].SKU),
				slog.Int("closing", day[i].ClosingQty),
				slog.Int("expected", day[i].ExpectedClosing()))
			day[i].ClosingQty = day[i].ExpectedClosing()
		}
	}
	return ledger.OrderForDisplay(day)
}
