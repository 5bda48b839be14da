package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/om-jewellers/stockledger/internal/ledger"
	"github.com/om-jewellers/stockledger/internal/remote"
)

// ReportSource downloads rendered reports.
type ReportSource interface {
	Export(ctx context.Context, format remote.Format, params url.Values) ([]byte, error)
}

var errEmptyReport = errors.New("service returned an empty document")

// Exporter resolves export ranges and saves the documents locally.
type Exporter struct {
	source ReportSource
	cal    ledger.Calendar
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// NewExporter writes reports into dir.
func NewExporter(source ReportSource, cal ledger.Calendar, dir string, logger *slog.Logger) *Exporter {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{source: source, cal: cal, dir: dir, now: time.Now, logger: logger}
}

// Export resolves r, downloads the document and saves it. It returns the saved
// path. Range problems are reported before any request is sent.
func (e *Exporter) Export(ctx context.Context, r ledger.Range, format remote.Format) (string, error) {
	if format != remote.FormatSpreadsheet && format != remote.FormatPDF {
		return "", invalid("format", "must be xlsx or pdf")
	}
	now := e.now()
	window, err := ledger.Resolve(r, now, e.cal)
	if err != nil {
		return "", &ValidationError{Field: "range", Message: err.Error(), Err: err}
	}
	data, err := e.source.Export(ctx, format, window.Params())
	if err != nil {
		return "", &ExportError{Kind: string(format), Err: err}
	}
	if len(data) == 0 {
		return "", &ExportError{Kind: string(format), Err: errEmptyReport}
	}
	name := fmt.Sprintf("inventory_%s_%d%s", window.WireType(), now.UnixMilli(), format.Extension())
	path := filepath.Join(e.dir, name)
	if err := writeAtomic(path, data); err != nil {
		return "", &ExportError{Kind: string(format), Err: err}
	}
	e.logger.Info("report saved", slog.String("path", path), slog.Int("bytes", len(data)))
	return path, nil
}

// writeAtomic writes through a temp file in the target directory so a failure
// never leaves a partial document under the final name.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".inventory-*.part")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
