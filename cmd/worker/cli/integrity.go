package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/jobs"
)

// IntegrityOptions defines available flags for the integrity command.
type IntegrityOptions struct {
	Day        string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// IntegritySummary describes the JSON response for integrity.
type IntegritySummary struct {
	OK         bool             `json:"ok"`
	Day        string           `json:"day"`
	Rows       int              `json:"rows"`
	Unbalanced []UnbalancedLine `json:"unbalanced"`
}

// UnbalancedLine is one row whose closing disagrees with its movements.
type UnbalancedLine struct {
	SKU      string `json:"sku"`
	Product  string `json:"product"`
	Expected int    `json:"expected"`
	Closing  int    `json:"closing"`
}

// IntegrityCLI audits ledger days without going through the queue.
type IntegrityCLI struct {
	auditor jobs.Auditor
	cal     ledger.Calendar
	now     func() time.Time
}

// NewIntegrityCLI constructs the helper.
func NewIntegrityCLI(auditor jobs.Auditor, cal ledger.Calendar) *IntegrityCLI {
	return &IntegrityCLI{auditor: auditor, cal: cal, now: time.Now}
}

// IntegrityCommand audits one day and prints the outcome. It exits 10 when
// unbalanced rows are found.
func (c *IntegrityCLI) IntegrityCommand(ctx context.Context, opts IntegrityOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	day := strings.TrimSpace(opts.Day)
	if day == "" {
		day = c.cal.DayKey(c.cal.StartOfDay(c.now()).AddDate(0, 0, -1))
	}
	if _, err := c.cal.ParseDay(day); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "integrity: invalid date %q (expected YYYY-MM-DD)\n", opts.Day)
		return 1
	}
	audit, err := c.auditor.AuditDay(ctx, day)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "integrity: %v\n", err)
		return 1
	}
	summary := IntegritySummary{OK: len(audit.Unbalanced) == 0, Day: day, Rows: audit.Rows, Unbalanced: []UnbalancedLine{}}
	for _, e := range audit.Unbalanced {
		summary.Unbalanced = append(summary.Unbalanced, UnbalancedLine{
			SKU:      e.SKU,
			Product:  e.ProductName,
			Expected: e.ExpectedClosing(),
			Closing:  e.ClosingQty,
		})
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "integrity: encode json: %v\n", err)
			return 1
		}
	} else {
		renderIntegrityHuman(opts.Stdout, summary)
	}
	if !summary.OK {
		return 10
	}
	return 0
}

func renderIntegrityHuman(w io.Writer, s IntegritySummary) {
	if s.OK {
		_, _ = fmt.Fprintf(w, "%s: %d rows balanced\n", s.Day, s.Rows)
		return
	}
	_, _ = fmt.Fprintf(w, "%s: %d of %d rows unbalanced\n", s.Day, len(s.Unbalanced), s.Rows)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SKU\tPRODUCT\tEXPECTED\tCLOSING")
	for _, line := range s.Unbalanced {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", line.SKU, line.Product, line.Expected, line.Closing)
	}
	_ = tw.Flush()
}
