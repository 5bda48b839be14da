package auth

import (
	"fmt"
	"time"

	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/platform/httpx"
)

// User represents an operator account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         ledger.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is the login response.
type Session struct {
	Token     string      `json:"token"`
	Role      ledger.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

var (
	// ErrInvalidCredentials hides whether the username or the password was wrong.
	ErrInvalidCredentials = fmt.Errorf("auth: invalid username or password: %w", httpx.ErrUnauthorized)
	// ErrInvalidToken indicates a malformed, expired or foreign bearer token.
	ErrInvalidToken = fmt.Errorf("auth: invalid token: %w", httpx.ErrUnauthorized)
	// ErrUserNotFound indicates the username is unknown.
	ErrUserNotFound = fmt.Errorf("auth: user not found: %w", httpx.ErrNotFound)
	// ErrForbidden indicates the role lacks the permission.
	ErrForbidden = fmt.Errorf("auth: role not permitted: %w", httpx.ErrForbidden)
)
