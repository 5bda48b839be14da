package console

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

// EditState is the phase of the shared edit slot.
type EditState int

const (
	EditIdle EditState = iota
	EditEditing
	EditCommitting
)

func (s EditState) String() string {
	switch s {
	case EditEditing:
		return "editing"
	case EditCommitting:
		return "committing"
	}
	return "idle"
}

// Edit is a point-in-time view of the edit slot.
type Edit struct {
	State     EditState
	ProductID string
	Mode      ledger.Mode
	Value     string
}

// ApplyFunc performs a committed adjustment.
type ApplyFunc func(ctx context.Context, productID string, mode ledger.Mode, amount int) error

// EditSession is the single edit slot shared by the whole product list. At most
// one row is being edited or committed at a time.
type EditSession struct {
	mu   sync.Mutex
	edit Edit
}

// NewEditSession returns an idle session.
func NewEditSession() *EditSession {
	return &EditSession{}
}

// Current returns the slot contents.
func (s *EditSession) Current() Edit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edit
}

// Begin opens an edit for productID with an empty value. An open edit on any
// row is discarded. Begin fails with ErrCommitInFlight while a commit is pending.
func (s *EditSession) Begin(productID string, mode ledger.Mode) error {
	if !mode.Valid() {
		return &ValidationError{Field: "mode", Message: "must be add or sell", Err: ledger.ErrInvalidMode}
	}
	if productID == "" {
		return invalid("product", "is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit.State == EditCommitting {
		return ErrCommitInFlight
	}
	s.edit = Edit{State: EditEditing, ProductID: productID, Mode: mode}
	return nil
}

// Update stores raw, unvalidated input.
func (s *EditSession) Update(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit.State != EditEditing {
		return ErrNotEditing
	}
	s.edit.Value = value
	return nil
}

// Cancel discards the open edit.
func (s *EditSession) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit.State != EditEditing {
		return ErrNotEditing
	}
	s.edit = Edit{}
	return nil
}

// Commit validates the value and hands it to apply. Invalid input leaves the
// slot in Editing without calling apply. A failed apply returns the slot to
// Editing with the value intact; success empties the slot.
func (s *EditSession) Commit(ctx context.Context, apply ApplyFunc) error {
	s.mu.Lock()
	if s.edit.State != EditEditing {
		s.mu.Unlock()
		return ErrNotEditing
	}
	amount, err := ParseAmount(s.edit.Value)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	pending := s.edit
	s.edit.State = EditCommitting
	s.mu.Unlock()

	err = apply(ctx, pending.ProductID, pending.Mode, amount)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.edit = pending
		return err
	}
	s.edit = Edit{}
	return nil
}

// ParseAmount accepts a positive whole number, surrounding spaces allowed.
func ParseAmount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid("quantity", "enter a valid quantity")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: "quantity", Message: "enter a valid quantity", Err: err}
	}
	if n <= 0 {
		return 0, invalid("quantity", "must be greater than zero")
	}
	if n > ledger.MaxQuantity {
		return 0, invalid("quantity", "is too large")
	}
	return n, nil
}
