package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/om-jewellers/stockledger/internal/auth"
	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/platform/httpx"
	_ "github.com/om-jewellers/stockledger/testing"
)

func newService(t *testing.T) (*auth.Service, *auth.Tokens) {
	t.Helper()
	tokens, err := auth.NewTokens("secret", time.Hour)
	require.NoError(t, err)
	svc := auth.NewService(auth.NewMemoryRepository(), tokens)
	_, err = svc.Register(context.Background(), "Asha", "correctpass", ledger.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "ravi", "correctpass", ledger.RoleStaff)
	require.NoError(t, err)
	return svc, tokens
}

func TestLoginIssuesRoleToken(t *testing.T) {
	svc, tokens := newService(t)

	sess, err := svc.Login(context.Background(), " asha ", "correctpass")
	require.NoError(t, err)
	require.Equal(t, ledger.RoleAdmin, sess.Role)

	claims, err := tokens.Parse(sess.Token)
	require.NoError(t, err)
	require.Equal(t, "asha", claims.Username)
	require.Equal(t, ledger.RoleAdmin, claims.RoleOf())
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Login(context.Background(), "asha", "wrongpass")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "nobody", "correctpass")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	require.Equal(t, http.StatusUnauthorized, httpx.StatusOf(err))
}

func TestRegisterRejectsGuestAndDuplicates(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), "visitor", "longenough", ledger.RoleGuest)
	require.ErrorIs(t, err, httpx.ErrValidation)
	_, err = svc.Register(context.Background(), "ASHA", "longenough", ledger.RoleStaff)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestParseRejectsForeignToken(t *testing.T) {
	_, tokens := newService(t)
	other, err := auth.NewTokens("other-secret", time.Hour)
	require.NoError(t, err)
	raw, _, err := other.Issue(auth.User{ID: 1, Username: "asha", Role: ledger.RoleAdmin})
	require.NoError(t, err)

	_, err = tokens.Parse(raw)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
	_, err = tokens.Parse("not-a-token")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseRejectsExpiredAndUnsignedClaims(t *testing.T) {
	_, tokens := newService(t)
	sign := func(method jwt.SigningMethod, claims auth.Claims) string {
		raw, err := jwt.NewWithClaims(method, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return raw
	}
	live := jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	claims, err := tokens.Parse(sign(jwt.SigningMethodHS256, auth.Claims{Username: "asha", Role: "admin", RegisteredClaims: live}))
	require.NoError(t, err)
	require.Equal(t, ledger.RoleAdmin, claims.RoleOf())

	expired := jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}
	_, err = tokens.Parse(sign(jwt.SigningMethodHS256, auth.Claims{Role: "admin", RegisteredClaims: expired}))
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = tokens.Parse(sign(jwt.SigningMethodHS256, auth.Claims{Role: "admin"}))
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = tokens.Parse(sign(jwt.SigningMethodHS512, auth.Claims{Role: "admin", RegisteredClaims: live}))
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func newRouter(svc *auth.Service, tokens *auth.Tokens) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/auth", auth.NewHandler(nil, svc).MountRoutes)
	r.Group(func(r chi.Router) {
		r.Use(tokens.Authenticate)
		r.Get("/read", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(auth.PrincipalFromContext(r.Context()).Role))
		})
		r.With(auth.RequireAdjust).Post("/adjust", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		r.With(auth.RequireArchive).Post("/archive", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r
}

func login(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	body := `{"username":"` + username + `","password":"correctpass"}`
	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var sess auth.Session
	require.NoError(t, json.NewDecoder(res.Body).Decode(&sess))
	return sess.Token
}

func TestRoleMiddleware(t *testing.T) {
	svc, tokens := newService(t)
	h := newRouter(svc, tokens)
	admin := login(t, h, "asha")
	staff := login(t, h, "ravi")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"guest reads", http.MethodGet, "/read", "", http.StatusOK},
		{"guest cannot adjust", http.MethodPost, "/adjust", "", http.StatusForbidden},
		{"staff adjusts", http.MethodPost, "/adjust", staff, http.StatusNoContent},
		{"staff cannot archive", http.MethodPost, "/archive", staff, http.StatusForbidden},
		{"admin archives", http.MethodPost, "/archive", admin, http.StatusNoContent},
		{"bad token", http.MethodGet, "/read", "garbage", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			res := httptest.NewRecorder()
			h.ServeHTTP(res, req)
			require.Equal(t, tc.want, res.Code)
		})
	}
}

func TestLoginHandlerErrors(t *testing.T) {
	svc, tokens := newService(t)
	h := newRouter(svc, tokens)

	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"asha"}`)))
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"asha","password":"nope"}`)))
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Contains(t, res.Header().Get("Content-Type"), "application/problem+json")
}
