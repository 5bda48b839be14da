package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/report"
	"github.com/om-jewellers/stockledger/web"
)

// HTMLRenderer converts HTML to PDF.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html []byte, page report.Page) ([]byte, error)
}

// PDF renders the ledger through the embedded HTML template.
type PDF struct {
	renderer HTMLRenderer
	cal      ledger.Calendar
	tmpl     *template.Template
}

// NewPDF parses the report template.
func NewPDF(renderer HTMLRenderer, cal ledger.Calendar) (*PDF, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/reports/ledger.html")
	if err != nil {
		return nil, fmt.Errorf("export: parse template: %w", err)
	}
	return &PDF{renderer: renderer, cal: cal, tmpl: tmpl}, nil
}

type pdfData struct {
	Title       string
	Period      string
	GeneratedAt string
	Rows        []row
}

// HTML renders the template without converting it.
func (p *PDF) HTML(rep Report) ([]byte, error) {
	var buf bytes.Buffer
	data := pdfData{
		Title:       "Inventory Transactions",
		Period:      Period(p.cal, rep.Window),
		GeneratedAt: rep.GeneratedAt.In(p.cal.Location()).Format(time.RFC1123),
		Rows:        rowsOf(p.cal, rep.Entries),
	}
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("export: execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// Render produces a landscape PDF.
func (p *PDF) Render(ctx context.Context, rep Report) (Document, error) {
	html, err := p.HTML(rep)
	if err != nil {
		return Document{}, err
	}
	pdf, err := p.renderer.RenderHTML(ctx, html, report.Page{Landscape: true, PrintBackground: true})
	if err != nil {
		return Document{}, fmt.Errorf("export: render pdf: %w", err)
	}
	return Document{ContentType: "application/pdf", Extension: "pdf", Data: pdf}, nil
}
