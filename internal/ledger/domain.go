// Package ledger holds the product and daily reconciliation model shared by the
// console and the inventory service.
package ledger

import (
	"encoding/json"
	"errors"
	"time"
)

// Category tags a product with a material classification.
type Category string

const (
	// CategoryNone marks an uncategorized product.
	CategoryNone Category = ""
	// CategoryGold marks gold items.
	CategoryGold Category = "Gold"
	// CategorySilver marks silver items.
	CategorySilver Category = "Silver"
)

// Label returns the display label, "General" for uncategorized products.
func (c Category) Label() string {
	if c == CategoryNone {
		return "General"
	}
	return string(c)
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryNone, CategoryGold, CategorySilver:
		return true
	}
	return false
}

// Mode is the direction of a quantity adjustment.
type Mode string

const (
	// ModeAdd increases on-hand quantity.
	ModeAdd Mode = "add"
	// ModeSell decreases on-hand quantity.
	ModeSell Mode = "sell"
)

// Valid reports whether m is add or sell.
func (m Mode) Valid() bool {
	return m == ModeAdd || m == ModeSell
}

// Product mirrors one catalog item of the inventory service.
type Product struct {
	ID          string   `json:"id"`
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Quantity    int      `json:"quantity"`
	LowQuantity int      `json:"lowQuantity"`
	Category    Category `json:"category,omitempty"`
	IsActive    bool     `json:"isActive"`
}

// UnmarshalJSON treats a missing isActive as active.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	raw := alias{IsActive: true}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product(raw)
	return nil
}

// LowStock reports whether the product should raise a low-stock alert.
func (p Product) LowStock() bool {
	return IsLowStock(p.Quantity, p.LowQuantity)
}

// MaxQuantity is the largest quantity, threshold or daily movement a ledger
// column can hold.
const MaxQuantity = 1<<31 - 1

// IsLowStock derives the alert flag. A zero threshold disables the alert.
func IsLowStock(quantity, lowQuantity int) bool {
	return lowQuantity > 0 && quantity <= lowQuantity
}

// NewProduct is the payload for creating a catalog item.
type NewProduct struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Quantity    int      `json:"quantity" validate:"gte=0,lte=2147483647"`
	LowQuantity int      `json:"lowQuantity" validate:"gte=0,lte=2147483647"`
	Category    Category `json:"category,omitempty"`
}

// Entry is one product's opening, added, sold and closing quantities for a
// single ledger day. SKU, name and category are snapshots taken when the row
// was written so the entry survives archival and deletion of the product.
type Entry struct {
	ID          string    `json:"id,omitempty"`
	Date        time.Time `json:"date"`
	ProductID   string    `json:"productId,omitempty"`
	SKU         string    `json:"sku"`
	ProductName string    `json:"productName"`
	Category    Category  `json:"category,omitempty"`
	OpeningQty  int       `json:"openingQty"`
	AddedQty    int       `json:"addedQty"`
	SoldQty     int       `json:"soldQty"`
	ClosingQty  int       `json:"closingQty"`
	IsActive    bool      `json:"isActive"`
}

// UnmarshalJSON treats a missing isActive as active.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type alias Entry
	raw := alias{IsActive: true}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry(raw)
	return nil
}

// ExpectedClosing is opening + added - sold.
func (e Entry) ExpectedClosing() int {
	return e.OpeningQty + e.AddedQty - e.SoldQty
}

// Balanced reports whether the closing quantity matches the movements.
func (e Entry) Balanced() bool {
	return e.ClosingQty == e.ExpectedClosing()
}

// Archived reports whether the row should be annotated as archived.
func (e Entry) Archived() bool {
	return !e.IsActive
}

var (
	// ErrInvalidMode indicates an adjustment mode other than add or sell.
	ErrInvalidMode = errors.New("ledger: mode must be add or sell")
	// ErrInvalidCategory indicates an unknown category tag.
	ErrInvalidCategory = errors.New("ledger: unknown category")
)
