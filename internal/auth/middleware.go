package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/platform/httpx"
)

type ctxKey struct{}

// Principal is the caller resolved from the bearer token.
type Principal struct {
	Username string
	Role     ledger.Role
}

// PrincipalFromContext returns the caller. Requests without a token are guests.
func PrincipalFromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(ctxKey{}).(Principal); ok {
		return p
	}
	return Principal{Role: ledger.RoleGuest}
}

// ContextWithPrincipal stores p on ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Authenticate resolves the bearer token. A missing token proceeds as guest;
// a malformed or expired one is rejected.
func (t *Tokens) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			httpx.RespondError(w, ErrInvalidToken)
			return
		}
		claims, err := t.Parse(strings.TrimSpace(raw))
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		ctx := ContextWithPrincipal(r.Context(), Principal{Username: claims.Username, Role: claims.RoleOf()})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require rejects callers whose role fails allowed with 403.
func Require(allowed func(ledger.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed(PrincipalFromContext(r.Context()).Role) {
				httpx.RespondError(w, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdjust admits admin and staff.
func RequireAdjust(next http.Handler) http.Handler {
	return Require(ledger.Role.CanAdjust)(next)
}

// RequireArchive admits admin only.
func RequireArchive(next http.Handler) http.Handler {
	return Require(ledger.Role.CanArchive)(next)
}
