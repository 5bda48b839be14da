package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/om-jewellers/stockledger/internal/app"
	"github.com/om-jewellers/stockledger/internal/auth"
	"github.com/om-jewellers/stockledger/internal/ledger"
)

func TestEnsureAdminIsIdempotent(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "Owner")
	t.Setenv("ADMIN_PASSWORD", "long-enough")
	cfg := memoryConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	stores, err := app.OpenStores(ctx, cfg, logger)
	require.NoError(t, err)
	require.Nil(t, stores.Pool)
	require.NoError(t, stores.Ping(ctx))

	tokens, err := auth.NewTokens(cfg.JWTSecret, time.Hour)
	require.NoError(t, err)
	users := auth.NewService(stores.Users, tokens)

	require.NoError(t, app.EnsureAdmin(ctx, cfg, users, logger))
	require.NoError(t, app.EnsureAdmin(ctx, cfg, users, logger))

	sess, err := users.Login(ctx, "owner", "long-enough")
	require.NoError(t, err)
	require.Equal(t, ledger.RoleAdmin, sess.Role)
}

func TestEnsureAdminSkipsWithoutCredentials(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.AdminUsername, cfg.AdminPassword = "", ""
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores, err := app.OpenStores(context.Background(), cfg, logger)
	require.NoError(t, err)
	tokens, err := auth.NewTokens(cfg.JWTSecret, time.Hour)
	require.NoError(t, err)

	require.NoError(t, app.EnsureAdmin(context.Background(), cfg, auth.NewService(stores.Users, tokens), logger))
	_, err = stores.Users.FindByUsername(context.Background(), "owner")
	require.ErrorIs(t, err, auth.ErrUserNotFound)
}
