package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

func TestClientListSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/products/all", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":"p1","sku":"G-0001","name":"GOLD RING","quantity":4,"lowQuantity":5,"category":"Gold"}]`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", "secret", srv.Client())
	require.NoError(t, err)
	products, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.True(t, products[0].IsActive)
	require.True(t, products[0].LowStock())
}

func TestClientUpdateQuantityBody(t *testing.T) {
	var got map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/products/update/p1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "", srv.Client())
	require.NoError(t, err)

	require.NoError(t, client.UpdateQuantity(context.Background(), "p1", ledger.ModeSell, 3))
	require.Equal(t, map[string]int{"sellQty": 3}, got)

	require.NoError(t, client.UpdateQuantity(context.Background(), "p1", ledger.ModeAdd, 7))
	require.Equal(t, map[string]int{"addQty": 7}, got)

	require.ErrorIs(t, client.UpdateQuantity(context.Background(), "p1", ledger.Mode("swap"), 1), ledger.ErrInvalidMode)
}

func TestClientStatusErrorCarriesProblemDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"title":"Conflict","detail":"insufficient stock"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "", srv.Client())
	require.NoError(t, err)
	err = client.UpdateQuantity(context.Background(), "p1", ledger.ModeSell, 99)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusConflict, statusErr.StatusCode)
	require.Equal(t, "insufficient stock", statusErr.Detail)
}

func TestClientExportSelectsEndpoint(t *testing.T) {
	var paths []string
	var queries []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		queries = append(queries, r.URL.Query())
		_, _ = w.Write([]byte("DOC"))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "", srv.Client())
	require.NoError(t, err)
	params := url.Values{"type": {"custom"}, "start": {"2024-03-01"}, "end": {"2024-03-10"}}

	data, err := client.Export(context.Background(), FormatSpreadsheet, params)
	require.NoError(t, err)
	require.Equal(t, []byte("DOC"), data)
	_, err = client.Export(context.Background(), FormatPDF, url.Values{"type": {"all"}})
	require.NoError(t, err)

	require.Equal(t, []string{"/api/products/export", "/api/products/export-pdf"}, paths)
	require.Equal(t, "2024-03-10", queries[0].Get("end"))
	require.Equal(t, "all", queries[1].Get("type"))
	require.Empty(t, queries[1].Get("start"))
}

func TestClientTransactionsDateHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2024-03-15", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`[{"id":"t1","date":"2024-03-15T04:00:00Z","productId":"p1","openingQty":5,"addedQty":2,"soldQty":1,"closingQty":6}]`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "", srv.Client())
	require.NoError(t, err)
	entries, err := client.Transactions(context.Background(), "2024-03-15")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Balanced())
}

func TestClientLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "staff1", body["username"])
		_, _ = w.Write([]byte(`{"token":"abc","role":"staff"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "", srv.Client())
	require.NoError(t, err)
	sess, err := client.Login(context.Background(), "staff1", "pw")
	require.NoError(t, err)
	require.Equal(t, Session{Token: "abc", Role: "staff"}, sess)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ", "", nil)
	require.ErrorIs(t, err, ErrNoBaseURL)
}
