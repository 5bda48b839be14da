package inventory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type countingMetrics struct {
	changes map[string]int
}

func (m *countingMetrics) RecordQuantityChange(mode string, amount int) {
	if m.changes == nil {
		m.changes = map[string]int{}
	}
	m.changes[mode] += amount
}

func newTestService(t *testing.T) (*Service, *clock, *MemoryRepository) {
	t.Helper()
	cal, err := ledger.LoadCalendar("Asia/Kolkata")
	require.NoError(t, err)
	clk := &clock{now: time.Date(2026, 10, 15, 11, 0, 0, 0, cal.Location())}
	repo := NewMemoryRepository()
	return NewService(repo, nil, ServiceConfig{Calendar: cal, Now: clk.Now}), clk, repo
}

func ptr(v int) *int { return &v }

func TestAddProductOpensLedgerRow(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "  gold chain ", Quantity: 4, LowQuantity: 2, Category: ledger.CategoryGold})
	require.NoError(t, err)
	require.Equal(t, "GOLD CHAIN", p.Name)
	require.Equal(t, "G-0001", p.SKU)
	require.True(t, p.IsActive)
	require.NotEmpty(t, p.ID)

	rows, err := svc.Transactions(ctx, "2026-10-15")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 0, rows[0].OpeningQty)
	require.Equal(t, 4, rows[0].AddedQty)
	require.Equal(t, 4, rows[0].ClosingQty)
}

func TestSKUPrefixes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var skus []string
	for _, c := range []ledger.Category{ledger.CategoryGold, ledger.CategorySilver, ledger.CategoryNone} {
		p, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "item", Quantity: 1, Category: c})
		require.NoError(t, err)
		skus = append(skus, p.SKU)
	}
	require.Equal(t, []string{"G-0001", "S-0002", "P-0003"}, skus)
}

func TestAddProductValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "   ", Quantity: 1})
	require.ErrorIs(t, err, ErrInvalidProduct)
	_, err = svc.AddProduct(ctx, ledger.NewProduct{Name: "ring", Quantity: -1})
	require.ErrorIs(t, err, ErrInvalidProduct)
	_, err = svc.AddProduct(ctx, ledger.NewProduct{Name: "ring", Quantity: 1, Category: "Platinum"})
	require.ErrorIs(t, err, ErrInvalidProduct)
}

func TestAdjustQuantityRoundTrip(t *testing.T) {
	svc, clk, _ := newTestService(t)
	metrics := &countingMetrics{}
	svc.metrics = metrics
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "anklet", Quantity: 3})
	require.NoError(t, err)

	clk.now = clk.now.Add(24 * time.Hour)
	p, err = svc.AdjustQuantity(ctx, p.ID, QuantityInput{AddQty: ptr(5)})
	require.NoError(t, err)
	require.Equal(t, 8, p.Quantity)
	p, err = svc.AdjustQuantity(ctx, p.ID, QuantityInput{SellQty: ptr(5)})
	require.NoError(t, err)
	require.Equal(t, 3, p.Quantity)

	rows, err := svc.Transactions(ctx, "2026-10-16")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 3, rows[0].OpeningQty)
	require.Equal(t, 5, rows[0].AddedQty)
	require.Equal(t, 5, rows[0].SoldQty)
	require.Equal(t, 3, rows[0].ClosingQty)
	require.True(t, rows[0].Balanced())
	require.Equal(t, map[string]int{"add": 5, "sell": 5}, metrics.changes)

	all, err := svc.Transactions(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestAdjustQuantityGuards(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "bangle", Quantity: 2})
	require.NoError(t, err)

	_, err = svc.AdjustQuantity(ctx, p.ID, QuantityInput{SellQty: ptr(3)})
	require.ErrorIs(t, err, ErrNegativeStock)
	_, err = svc.AdjustQuantity(ctx, p.ID, QuantityInput{AddQty: ptr(1), SellQty: ptr(1)})
	require.ErrorIs(t, err, ErrAmbiguousQuantity)
	_, err = svc.AdjustQuantity(ctx, p.ID, QuantityInput{AddQty: ptr(0)})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.AdjustQuantity(ctx, p.ID, QuantityInput{})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.AdjustQuantity(ctx, "missing", QuantityInput{AddQty: ptr(1)})
	require.ErrorIs(t, err, ErrProductNotFound)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, products[0].Quantity)
}

func TestAdjustQuantityStaysWithinColumnRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "beads", Quantity: ledger.MaxQuantity + 1})
	require.ErrorIs(t, err, ErrInvalidProduct)
	_, err = svc.AddProduct(ctx, ledger.NewProduct{Name: "beads", Quantity: 1, LowQuantity: math.MaxInt})
	require.ErrorIs(t, err, ErrInvalidProduct)

	p, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "beads", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AdjustQuantity(ctx, p.ID, QuantityInput{AddQty: ptr(math.MaxInt)})
	require.ErrorIs(t, err, ErrQuantityLimit)
	_, err = svc.AdjustQuantity(ctx, p.ID, QuantityInput{AddQty: ptr(ledger.MaxQuantity)})
	require.ErrorIs(t, err, ErrQuantityLimit)
	_, err = svc.AdjustQuantity(ctx, p.ID, QuantityInput{SellQty: ptr(math.MaxInt)})
	require.ErrorIs(t, err, ErrQuantityLimit)

	rows, err := svc.Transactions(ctx, "2026-10-15")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 1, rows[0].AddedQty)
	require.Equal(t, 1, rows[0].ClosingQty)

	bulk, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "bulk", Quantity: ledger.MaxQuantity})
	require.NoError(t, err)
	_, err = svc.AdjustQuantity(ctx, bulk.ID, QuantityInput{SellQty: ptr(ledger.MaxQuantity)})
	require.NoError(t, err)
	// On hand is back to zero but today's added column is already full.
	_, err = svc.AdjustQuantity(ctx, bulk.ID, QuantityInput{AddQty: ptr(1)})
	require.ErrorIs(t, err, ErrQuantityLimit)
}

func TestArchiveAndDelete(t *testing.T) {
	svc, clk, _ := newTestService(t)
	ctx := context.Background()
	p, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "nose pin", Quantity: 6, Category: ledger.CategorySilver})
	require.NoError(t, err)

	err = svc.Delete(ctx, p.ID)
	require.ErrorIs(t, err, ErrProductActive)

	clk.now = clk.now.Add(24 * time.Hour)
	archived, err := svc.Archive(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, archived.IsActive)
	require.Equal(t, 6, archived.Quantity)

	_, err = svc.Archive(ctx, p.ID)
	require.ErrorIs(t, err, ErrProductArchived)
	_, err = svc.AdjustQuantity(ctx, p.ID, QuantityInput{AddQty: ptr(1)})
	require.ErrorIs(t, err, ErrProductArchived)

	rows, err := svc.Transactions(ctx, "2026-10-16")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.False(t, rows[0].IsActive)
	require.Equal(t, 6, rows[0].ClosingQty)

	require.NoError(t, svc.Delete(ctx, p.ID))
	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Empty(t, products)

	all, err := svc.Transactions(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "S-0001", all[0].SKU)
}

func TestProductsByDateCarriesClosingForward(t *testing.T) {
	svc, clk, _ := newTestService(t)
	ctx := context.Background()
	ring, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "ring", Quantity: 5})
	require.NoError(t, err)
	chain, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "chain", Quantity: 2})
	require.NoError(t, err)
	gone, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "old stock", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Archive(ctx, gone.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, gone.ID))

	clk.now = clk.now.Add(48 * time.Hour)
	_, err = svc.Archive(ctx, ring.ID)
	require.NoError(t, err)

	rows, err := svc.ProductsByDate(ctx, "2026-10-17")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, chain.ID, rows[0].ProductID)
	require.Equal(t, 2, rows[0].OpeningQty)
	require.Equal(t, 0, rows[0].AddedQty)
	require.Equal(t, 2, rows[0].ClosingQty)
	require.Equal(t, ring.ID, rows[1].ProductID)
	require.False(t, rows[1].IsActive)

	_, err = svc.ProductsByDate(ctx, "17-10-2026")
	require.ErrorIs(t, err, ErrInvalidDay)
}

func TestEntriesInWindowOrdersByDayThenStatus(t *testing.T) {
	svc, clk, _ := newTestService(t)
	ctx := context.Background()
	a, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "a", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Archive(ctx, a.ID)
	require.NoError(t, err)
	_, err = svc.AddProduct(ctx, ledger.NewProduct{Name: "b", Quantity: 1})
	require.NoError(t, err)
	clk.now = clk.now.Add(24 * time.Hour)
	_, err = svc.AddProduct(ctx, ledger.NewProduct{Name: "c", Quantity: 1})
	require.NoError(t, err)

	w, err := ledger.Resolve(ledger.Range{Kind: ledger.RangeYesterday}, clk.now, svc.Calendar())
	require.NoError(t, err)
	rows, err := svc.EntriesInWindow(ctx, w)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "B", rows[0].ProductName)
	require.Equal(t, "A", rows[1].ProductName)

	all, err := svc.EntriesInWindow(ctx, ledger.Window{Kind: ledger.RangeAllData, Unbounded: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "C", all[2].ProductName)
}

func TestAuditDayFlagsUnbalancedRows(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()
	p, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "pendant", Quantity: 3})
	require.NoError(t, err)

	audit, err := svc.AuditDay(ctx, "2026-10-15")
	require.NoError(t, err)
	require.Equal(t, 1, audit.Rows)
	require.Empty(t, audit.Unbalanced)

	err = repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		e, err := tx.GetEntryForUpdate(ctx, p.ID, "2026-10-15")
		if err != nil {
			return err
		}
		e.ClosingQty = 99
		return tx.UpsertEntry(ctx, "2026-10-15", e)
	})
	require.NoError(t, err)

	audit, err = svc.AuditDay(ctx, "2026-10-15")
	require.NoError(t, err)
	require.Len(t, audit.Unbalanced, 1)
	require.Equal(t, 99, audit.Unbalanced[0].ClosingQty)
}

func TestFailedTransactionLeavesStateUntouched(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()
	p, err := svc.AddProduct(ctx, ledger.NewProduct{Name: "stud", Quantity: 1})
	require.NoError(t, err)

	err = repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteProduct(ctx, p.ID); err != nil {
			return err
		}
		return ErrNegativeStock
	})
	require.ErrorIs(t, err, ErrNegativeStock)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
}
