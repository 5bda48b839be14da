package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/platform/httpx"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, user User) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByUsername fetches a user by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var (
		user User
		role string
	)
	err := r.pool.QueryRow(ctx, `SELECT id, username, password_hash, role, is_active, created_at, updated_at
FROM users WHERE username = $1`, normalizeUsername(username)).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Role = ledger.ParseRole(role)
	return &user, nil
}

// CreateUser inserts an account.
func (r *PGRepository) CreateUser(ctx context.Context, user User) (*User, error) {
	user.Username = normalizeUsername(user.Username)
	err := r.pool.QueryRow(ctx, `INSERT INTO users (username, password_hash, role, is_active)
VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
		user.Username, user.PasswordHash, string(user.Role), user.IsActive).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, fmt.Errorf("auth: username %s taken: %w", user.Username, httpx.ErrDuplicate)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// MemoryRepository keeps accounts in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]User
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: map[string]User{}}
}

// FindByUsername fetches a user by username.
func (r *MemoryRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[normalizeUsername(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// CreateUser stores an account.
func (r *MemoryRepository) CreateUser(_ context.Context, user User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Username = normalizeUsername(user.Username)
	if _, exists := r.users[user.Username]; exists {
		return nil, fmt.Errorf("auth: username %s taken: %w", user.Username, httpx.ErrDuplicate)
	}
	r.nextID++
	now := time.Now().UTC()
	user.ID, user.CreatedAt, user.UpdatedAt = r.nextID, now, now
	r.users[user.Username] = user
	return &user, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

var (
	_ Repository = (*PGRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
