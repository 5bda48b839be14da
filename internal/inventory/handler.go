package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/om-jewellers/stockledger/internal/auth"
	"github.com/om-jewellers/stockledger/internal/inventory/export"
	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/platform/httpx"
	"github.com/om-jewellers/stockledger/report"
)

// ExportMetrics counts rendered downloads.
type ExportMetrics interface {
	RecordExport(format string, rows int)
}

// HandlerConfig groups handler dependencies. PDF may be nil when no renderer
// is configured.
type HandlerConfig struct {
	Logger      *slog.Logger
	Service     *Service
	Spreadsheet export.Renderer
	PDF         export.Renderer
	Metrics     ExportMetrics
	Now         func() time.Time
}

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	spreadsheet export.Renderer
	pdf         export.Renderer
	metrics     ExportMetrics
	now         func() time.Time
}

// NewHandler constructs inventory handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		logger:      logger,
		service:     cfg.Service,
		spreadsheet: cfg.Spreadsheet,
		pdf:         cfg.PDF,
		metrics:     cfg.Metrics,
		now:         now,
	}
}

// MountRoutes registers inventory routes. Callers resolve the bearer token
// before these routes run.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/all", h.handleList)
	r.Get("/transactions/by-date", h.handleTransactions)
	r.Get("/by-date", h.handleProductsByDate)
	r.Get("/export", h.handleExport(h.spreadsheet))
	r.Get("/export-pdf", h.handleExport(h.pdf))
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdjust)
		r.Post("/add", h.handleAdd)
		r.Put("/update/{id}", h.handleUpdate)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireArchive)
		r.Put("/soft-delete/{id}", h.handleArchive)
		r.Delete("/delete/{id}", h.handleDelete)
		r.Get("/audit", h.handleAudit)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var input ledger.NewProduct
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.AddProduct(r.Context(), input)
	if err != nil {
		h.fail(w, "add product", err)
		return
	}
	h.logger.Info("product added",
		slog.String("sku", created.SKU),
		slog.String("by", auth.PrincipalFromContext(r.Context()).Username))
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var input QuantityInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.AdjustQuantity(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.fail(w, "update quantity", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	archived, err := h.service.Archive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "archive product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, archived)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Transactions(r.Context(), strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		h.fail(w, "list transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) handleProductsByDate(w http.ResponseWriter, r *http.Request) {
	day := strings.TrimSpace(r.URL.Query().Get("date"))
	if day == "" {
		httpx.RespondError(w, fmt.Errorf("%w: date is required", ErrInvalidDay))
		return
	}
	entries, err := h.service.ProductsByDate(r.Context(), day)
	if err != nil {
		h.fail(w, "list products by date", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

type auditResponse struct {
	Day        string         `json:"day"`
	Rows       int            `json:"rows"`
	Unbalanced []ledger.Entry `json:"unbalanced"`
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	cal := h.service.Calendar()
	day := strings.TrimSpace(r.URL.Query().Get("date"))
	if day == "" {
		day = cal.DayKey(h.now())
	}
	audit, err := h.service.AuditDay(r.Context(), day)
	if err != nil {
		h.fail(w, "audit ledger", err)
		return
	}
	unbalanced := audit.Unbalanced
	if unbalanced == nil {
		unbalanced = []ledger.Entry{}
	}
	httpx.JSON(w, http.StatusOK, auditResponse{Day: audit.Day, Rows: audit.Rows, Unbalanced: unbalanced})
}

func (h *Handler) handleExport(renderer export.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if renderer == nil {
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "export format not configured")
			return
		}
		now := h.now()
		window, err := ledger.WindowFromQuery(r.URL.Query(), now, h.service.Calendar())
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
			return
		}
		entries, err := h.service.EntriesInWindow(r.Context(), window)
		if err != nil {
			h.fail(w, "export", err)
			return
		}
		doc, err := renderer.Render(r.Context(), export.Report{Window: window, Entries: entries, GeneratedAt: now})
		if err != nil {
			if errors.Is(err, report.ErrUnavailable) {
				h.logger.Warn("export renderer unavailable", slog.Any("error", err))
				httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "pdf renderer unreachable")
				return
			}
			h.fail(w, "export", err)
			return
		}
		if h.metrics != nil {
			h.metrics.RecordExport(doc.Extension, len(entries))
		}
		name := fmt.Sprintf("inventory_%s_%d.%s", window.WireType(), now.UnixMilli(), doc.Extension)
		httpx.Attachment(w, doc.ContentType, name, doc.Data)
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusOf(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
