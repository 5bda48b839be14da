package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/om-jewellers/stockledger/internal/app"
	"github.com/om-jewellers/stockledger/internal/auth"
	"github.com/om-jewellers/stockledger/internal/inventory"
	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/platform/httpx"
)

type seedUser struct {
	username string
	password string
	role     ledger.Role
}

var users = []seedUser{
	{username: "admin", password: "admin12345", role: ledger.RoleAdmin},
	{username: "counter", password: "counter12345", role: ledger.RoleStaff},
}

var products = []ledger.NewProduct{
	{Name: "Gold Chain 22K", Quantity: 12, LowQuantity: 3, Category: ledger.CategoryGold},
	{Name: "Gold Bangle", Quantity: 8, LowQuantity: 2, Category: ledger.CategoryGold},
	{Name: "Silver Anklet", Quantity: 25, LowQuantity: 5, Category: ledger.CategorySilver},
	{Name: "Silver Toe Ring", Quantity: 4, LowQuantity: 6, Category: ledger.CategorySilver},
	{Name: "Gift Box", Quantity: 40, LowQuantity: 10},
}

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.StorageDriver == app.StorageMemory {
		log.Fatal("seed: STORAGE_DRIVER=memory has nothing to seed")
	}
	cal, err := cfg.Calendar()
	if err != nil {
		log.Fatalf("ledger calendar: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer stores.Close()

	fmt.Println("→ Seeding users...")
	tokens, err := auth.NewTokens(cfg.JWTSecret, time.Hour)
	if err != nil {
		log.Fatalf("init tokens: %v", err)
	}
	if err := seedUsers(ctx, auth.NewService(stores.Users, tokens)); err != nil {
		log.Fatalf("seed users: %v", err)
	}

	fmt.Println("→ Seeding products...")
	service := inventory.NewService(stores.Inventory, nil, inventory.ServiceConfig{Calendar: cal})
	if err := seedProducts(ctx, service); err != nil {
		log.Fatalf("seed products: %v", err)
	}
	fmt.Println("✓ Seed complete")
}

func seedUsers(ctx context.Context, service *auth.Service) error {
	for _, u := range users {
		_, err := service.Register(ctx, u.username, u.password, u.role)
		if errors.Is(err, httpx.ErrDuplicate) {
			fmt.Printf("  %s exists\n", u.username)
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", u.username, err)
		}
		fmt.Printf("  %s (%s)\n", u.username, u.role)
	}
	return nil
}

func seedProducts(ctx context.Context, service *inventory.Service) error {
	existing, err := service.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Printf("  %d products present, skipping\n", len(existing))
		return nil
	}
	for _, p := range products {
		created, err := service.AddProduct(ctx, p)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
		fmt.Printf("  %s %s x%d\n", created.SKU, created.Name, created.Quantity)
	}
	return nil
}
