// Package export renders ledger rows into downloadable spreadsheets and PDFs.
package export

import (
	"context"
	"time"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

// Document is a rendered download.
type Document struct {
	ContentType string
	Extension   string
	Data        []byte
}

// Report is the input of a renderer.
type Report struct {
	Window      ledger.Window
	Entries     []ledger.Entry
	GeneratedAt time.Time
}

// Renderer turns a report into a document.
type Renderer interface {
	Render(ctx context.Context, rep Report) (Document, error)
}

var header = []string{"Date", "SKU", "Name", "Category", "Opening", "Added", "Sold", "Closing", "Status"}

type row struct {
	Day      string
	SKU      string
	Name     string
	Category string
	Opening  int
	Added    int
	Sold     int
	Closing  int
	Status   string
	Archived bool
}

func rowsOf(cal ledger.Calendar, entries []ledger.Entry) []row {
	out := make([]row, 0, len(entries))
	for _, e := range entries {
		status := "Active"
		if e.Archived() {
			status = "Archived"
		}
		out = append(out, row{
			Day:      cal.DayKey(e.Date),
			SKU:      e.SKU,
			Name:     e.ProductName,
			Category: e.Category.Label(),
			Opening:  e.OpeningQty,
			Added:    e.AddedQty,
			Sold:     e.SoldQty,
			Closing:  e.ClosingQty,
			Status:   status,
			Archived: e.Archived(),
		})
	}
	return out
}

func (r row) values() []any {
	return []any{r.Day, r.SKU, r.Name, r.Category, r.Opening, r.Added, r.Sold, r.Closing, r.Status}
}

// Period describes the window for report headings.
func Period(cal ledger.Calendar, w ledger.Window) string {
	if w.Unbounded {
		return "All data"
	}
	start, end := cal.DayKey(w.Start), cal.DayKey(w.End)
	if start == end {
		return start
	}
	return start + " to " + end
}
