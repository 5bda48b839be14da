// Package remote talks to the inventory service over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

// Format selects the export document type.
type Format string

const (
	// FormatSpreadsheet requests an .xlsx workbook.
	FormatSpreadsheet Format = "xlsx"
	// FormatPDF requests a PDF document.
	FormatPDF Format = "pdf"
)

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	return "." + string(f)
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("remote: %s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("remote: %s: status %d", e.Op, e.StatusCode)
}

// ErrNoBaseURL indicates the client was built without a service address.
var ErrNoBaseURL = errors.New("remote: base url required")

// Session is the result of a successful login.
type Session struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Client wraps calls to the inventory service. It carries no request timeout;
// callers bound requests through the context if they need to.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a client. token is attached as a bearer credential when non-empty.
func NewClient(baseURL, token string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: baseURL, token: token, httpClient: httpClient}, nil
}

// WithToken returns a copy of c that sends token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// List returns the full current product set.
func (c *Client) List(ctx context.Context) ([]ledger.Product, error) {
	var products []ledger.Product
	if err := c.doJSON(ctx, "list products", http.MethodGet, "/api/products/all", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Add creates a product. The service assigns id and sku.
func (c *Client) Add(ctx context.Context, input ledger.NewProduct) (ledger.Product, error) {
	var created ledger.Product
	if err := c.doJSON(ctx, "add product", http.MethodPost, "/api/products/add", input, &created); err != nil {
		return ledger.Product{}, err
	}
	return created, nil
}

type quantityUpdate struct {
	AddQty  int `json:"addQty,omitempty"`
	SellQty int `json:"sellQty,omitempty"`
}

// UpdateQuantity sends a signed adjustment intent. The service performs the arithmetic.
func (c *Client) UpdateQuantity(ctx context.Context, productID string, mode ledger.Mode, amount int) error {
	var body quantityUpdate
	switch mode {
	case ledger.ModeAdd:
		body.AddQty = amount
	case ledger.ModeSell:
		body.SellQty = amount
	default:
		return ledger.ErrInvalidMode
	}
	return c.doJSON(ctx, "update quantity", http.MethodPut, "/api/products/update/"+url.PathEscape(productID), body, nil)
}

// SoftDelete archives an active product.
func (c *Client) SoftDelete(ctx context.Context, productID string) error {
	return c.doJSON(ctx, "archive product", http.MethodPut, "/api/products/soft-delete/"+url.PathEscape(productID), struct{}{}, nil)
}

// Delete permanently removes an archived product.
func (c *Client) Delete(ctx context.Context, productID string) error {
	return c.doJSON(ctx, "delete product", http.MethodDelete, "/api/products/delete/"+url.PathEscape(productID), nil, nil)
}

// Transactions returns ledger rows. day narrows the query when the service supports it;
// callers must still filter by day themselves.
func (c *Client) Transactions(ctx context.Context, day string) ([]ledger.Entry, error) {
	path := "/api/products/transactions/by-date"
	if day != "" {
		path += "?" + url.Values{"date": {day}}.Encode()
	}
	var entries []ledger.Entry
	if err := c.doJSON(ctx, "list transactions", http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ProductsByDate returns one ledger-shaped row per product known on day.
func (c *Client) ProductsByDate(ctx context.Context, day string) ([]ledger.Entry, error) {
	path := "/api/products/by-date?" + url.Values{"date": {day}}.Encode()
	var entries []ledger.Entry
	if err := c.doJSON(ctx, "list products by date", http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Export downloads a report document for the given query parameters.
func (c *Client) Export(ctx context.Context, format Format, params url.Values) ([]byte, error) {
	path := "/api/products/export"
	if format == FormatPDF {
		path = "/api/products/export-pdf"
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: export: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus("export", resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: export: read body: %w", err)
	}
	return data, nil
}

// Login exchanges credentials for a bearer token and role.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	var sess Session
	body := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, "login", http.MethodPost, "/api/auth/login", body, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("remote: %s: %w", op, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(op, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remote: %s: decode: %w", op, err)
	}
	return nil
}

type problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	detail := strings.TrimSpace(string(data))
	var p problem
	if json.Unmarshal(data, &p) == nil {
		switch {
		case p.Detail != "":
			detail = p.Detail
		case p.Title != "":
			detail = p.Title
		}
	}
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Detail: detail}
}
