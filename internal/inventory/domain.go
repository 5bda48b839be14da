package inventory

import (
	"fmt"
	"time"

	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/platform/httpx"
)

// QuantityInput is the body of a quantity update. Exactly one of AddQty and
// SellQty must be set.
type QuantityInput struct {
	AddQty  *int `json:"addQty,omitempty" validate:"omitempty,gt=0,lte=2147483647"`
	SellQty *int `json:"sellQty,omitempty" validate:"omitempty,gt=0,lte=2147483647"`
}

// Delta returns the mode and amount of the update.
func (in QuantityInput) Delta() (ledger.Mode, int, error) {
	switch {
	case in.AddQty != nil && in.SellQty != nil:
		return "", 0, ErrAmbiguousQuantity
	case in.AddQty != nil && *in.AddQty > 0:
		return ledger.ModeAdd, *in.AddQty, nil
	case in.SellQty != nil && *in.SellQty > 0:
		return ledger.ModeSell, *in.SellQty, nil
	}
	return "", 0, ErrInvalidQuantity
}

// EntryFilter bounds a ledger query by day key. Empty bounds are open.
type EntryFilter struct {
	FromDay string
	ToDay   string
}

// Window converts a resolved export window into a filter.
func Window(cal ledger.Calendar, w ledger.Window) EntryFilter {
	if w.Unbounded {
		return EntryFilter{}
	}
	return EntryFilter{FromDay: cal.DayKey(w.Start), ToDay: cal.DayKey(w.End)}
}

// Includes reports whether day lies inside the filter.
func (f EntryFilter) Includes(day string) bool {
	if f.FromDay != "" && day < f.FromDay {
		return false
	}
	if f.ToDay != "" && day > f.ToDay {
		return false
	}
	return true
}

// Audit summarises a ledger integrity scan.
type Audit struct {
	Day        string
	Rows       int
	Unbalanced []ledger.Entry
	CheckedAt  time.Time
}

var (
	// ErrProductNotFound indicates the product id is unknown.
	ErrProductNotFound = fmt.Errorf("inventory: product not found: %w", httpx.ErrNotFound)
	// ErrEntryNotFound indicates no ledger row exists for the product and day.
	ErrEntryNotFound = fmt.Errorf("inventory: ledger row not found: %w", httpx.ErrNotFound)
	// ErrInvalidQuantity indicates a non-positive or missing adjustment.
	ErrInvalidQuantity = fmt.Errorf("inventory: addQty or sellQty must be a positive integer: %w", httpx.ErrValidation)
	// ErrAmbiguousQuantity indicates both addQty and sellQty were sent.
	ErrAmbiguousQuantity = fmt.Errorf("inventory: addQty and sellQty are mutually exclusive: %w", httpx.ErrValidation)
	// ErrQuantityLimit indicates an adjustment that would exceed ledger.MaxQuantity.
	ErrQuantityLimit = fmt.Errorf("inventory: quantity would exceed %d: %w", ledger.MaxQuantity, httpx.ErrValidation)
	// ErrInvalidProduct indicates the add-product payload failed validation.
	ErrInvalidProduct = fmt.Errorf("inventory: invalid product: %w", httpx.ErrValidation)
	// ErrNegativeStock triggered when a sale exceeds the quantity on hand.
	ErrNegativeStock = fmt.Errorf("inventory: insufficient stock: %w", httpx.ErrConflict)
	// ErrProductArchived indicates a write against an archived product.
	ErrProductArchived = fmt.Errorf("inventory: product is archived: %w", httpx.ErrConflict)
	// ErrProductActive indicates a permanent delete of a product that is still active.
	ErrProductActive = fmt.Errorf("inventory: only archived products can be deleted: %w", httpx.ErrConflict)
)

// ErrInvalidDay indicates a malformed date parameter.
var ErrInvalidDay = fmt.Errorf("inventory: date must be YYYY-MM-DD: %w", httpx.ErrValidation)
