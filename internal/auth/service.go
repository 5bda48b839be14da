package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/platform/httpx"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *Tokens
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *Tokens) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	token, expires, err := s.tokens.Issue(*user)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Role: user.Role, ExpiresAt: expires}, nil
}

// Register creates an account with a bcrypt hashed password. Guests have no
// account, so only admin and staff are accepted.
func (s *Service) Register(ctx context.Context, username, password string, role ledger.Role) (*User, error) {
	if !role.CanAdjust() {
		return nil, fmt.Errorf("auth: role %q cannot be registered: %w", role, httpx.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("auth: password must be at least 8 characters: %w", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, User{Username: username, PasswordHash: string(hash), Role: role, IsActive: true})
}
