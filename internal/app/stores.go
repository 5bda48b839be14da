package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/om-jewellers/stockledger/internal/auth"
	"github.com/om-jewellers/stockledger/internal/inventory"
	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/platform/db"
	"github.com/om-jewellers/stockledger/internal/platform/httpx"
)

// Stores bundles the repositories selected by STORAGE_DRIVER.
type Stores struct {
	Inventory inventory.RepositoryPort
	Users     auth.Repository
	// Pool is nil for the memory driver.
	Pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (s Stores) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// Ping checks the database connection. The memory driver is always healthy.
func (s Stores) Ping(ctx context.Context) error {
	if s.Pool == nil {
		return nil
	}
	return s.Pool.Ping(ctx)
}

// OpenStores connects the configured storage driver and applies the schema.
func OpenStores(ctx context.Context, cfg *Config, logger *slog.Logger) (Stores, error) {
	if cfg.StorageDriver == StorageMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return Stores{Inventory: inventory.NewMemoryRepository(), Users: auth.NewMemoryRepository()}, nil
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return Stores{}, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return Stores{}, err
	}
	return Stores{
		Inventory: inventory.NewRepository(pool),
		Users:     auth.NewRepository(pool),
		Pool:      pool,
	}, nil
}

// EnsureAdmin creates the configured admin account when it is missing.
func EnsureAdmin(ctx context.Context, cfg *Config, users *auth.Service, logger *slog.Logger) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	_, err := users.Register(ctx, cfg.AdminUsername, cfg.AdminPassword, ledger.RoleAdmin)
	if errors.Is(err, httpx.ErrDuplicate) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("admin account created", slog.String("username", cfg.AdminUsername))
	return nil
}
