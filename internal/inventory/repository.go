package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/platform/db"
	"github.com/om-jewellers/stockledger/internal/platform/httpx"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

const (
	uniqueViolation = "23505"
	txAttempts      = 3
)

// WithTx executes the callback inside repeatable-read transaction. Concurrent
// writers to the same product are rerun; a writer that still loses gets
// httpx.ErrConflict.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	err := db.Retry(ctx, txAttempts, func() error {
		return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
			return fn(ctx, &txRepository{tx: tx})
		})
	})
	return conflictOnSerialization(err)
}

func conflictOnSerialization(err error) error {
	if db.IsSerializationFailure(err) {
		return fmt.Errorf("inventory: concurrent update, try again: %w: %v", httpx.ErrConflict, err)
	}
	return err
}

const productColumns = `id::text, sku, name, quantity, low_quantity, category, is_active`

func (r *Repository) ListProducts(ctx context.Context) ([]ledger.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []ledger.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

const entryColumns = `id::text, entry_date, product_id::text, sku, product_name, category, opening_qty, added_qty, sold_qty, closing_qty, is_active`

func (r *Repository) ListEntries(ctx context.Context, filter EntryFilter) ([]ledger.Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+`
FROM ledger_entries
WHERE day BETWEEN COALESCE($1::date, '-infinity'::date) AND COALESCE($2::date, 'infinity'::date)
ORDER BY day ASC, seq ASC`, nullDay(filter.FromDay), nullDay(filter.ToDay))
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func (r *Repository) LatestEntries(ctx context.Context, day string) ([]ledger.Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM (
	SELECT DISTINCT ON (product_id) *
	FROM ledger_entries
	WHERE day <= $1::date
	ORDER BY product_id, day DESC
) latest
ORDER BY seq ASC`, day)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func (r *txRepository) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `SELECT nextval('product_seq')`).Scan(&seq)
	return seq, err
}

func (r *txRepository) InsertProduct(ctx context.Context, p ledger.Product) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO products (id, seq, sku, name, quantity, low_quantity, category, is_active)
VALUES ($1, currval('product_seq'), $2, $3, $4, $5, $6, $7)`,
		p.ID, p.SKU, p.Name, p.Quantity, p.LowQuantity, string(p.Category), p.IsActive)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("inventory: sku %s already exists: %w", p.SKU, httpx.ErrDuplicate)
	}
	return err
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id string) (ledger.Product, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id::text = $1 FOR UPDATE`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *txRepository) UpdateProduct(ctx context.Context, p ledger.Product) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET quantity=$2, is_active=$3, updated_at=NOW() WHERE id::text = $1`,
		p.ID, p.Quantity, p.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *txRepository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM products WHERE id::text = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, productID, day string) (ledger.Entry, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries
WHERE product_id::text = $1 AND day = $2::date FOR UPDATE`, productID, day)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Entry{}, ErrEntryNotFound
	}
	return e, err
}

func (r *txRepository) UpsertEntry(ctx context.Context, day string, e ledger.Entry) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO ledger_entries
	(id, product_id, day, entry_date, sku, product_name, category, opening_qty, added_qty, sold_qty, closing_qty, is_active)
VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (product_id, day) DO UPDATE SET
	sku = EXCLUDED.sku,
	product_name = EXCLUDED.product_name,
	category = EXCLUDED.category,
	added_qty = EXCLUDED.added_qty,
	sold_qty = EXCLUDED.sold_qty,
	closing_qty = EXCLUDED.closing_qty,
	is_active = EXCLUDED.is_active,
	updated_at = NOW()`,
		e.ID, e.ProductID, day, e.Date, e.SKU, e.ProductName, string(e.Category),
		e.OpeningQty, e.AddedQty, e.SoldQty, e.ClosingQty, e.IsActive)
	return err
}

func scanProduct(row pgx.Row) (ledger.Product, error) {
	var (
		p        ledger.Product
		category string
	)
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Quantity, &p.LowQuantity, &category, &p.IsActive); err != nil {
		return ledger.Product{}, err
	}
	p.Category = ledger.Category(category)
	return p, nil
}

func scanEntry(row pgx.Row) (ledger.Entry, error) {
	var (
		e        ledger.Entry
		category string
	)
	if err := row.Scan(&e.ID, &e.Date, &e.ProductID, &e.SKU, &e.ProductName, &category,
		&e.OpeningQty, &e.AddedQty, &e.SoldQty, &e.ClosingQty, &e.IsActive); err != nil {
		return ledger.Entry{}, err
	}
	e.Category = ledger.Category(category)
	return e, nil
}

func collectEntries(rows pgx.Rows) ([]ledger.Entry, error) {
	defer rows.Close()
	entries := []ledger.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullDay(day string) *string {
	if day == "" {
		return nil
	}
	return &day
}

var _ RepositoryPort = (*Repository)(nil)
