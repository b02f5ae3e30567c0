// Package export writes finished or in-progress box scores to CSV, JSON and
// plain-text report formats, and renders a score-progression chart. Export
// totals are recomputed from a chronological scan of the event log rather
// than read from live tags, so a report is always consistent with the log it
// was produced from.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
)

// Format represents the export format.
type Format string

const (
	// FormatCSV represents CSV export format.
	FormatCSV Format = "csv"
	// FormatJSON represents JSON export format.
	FormatJSON Format = "json"
	// FormatText represents the plain-text stat report format.
	FormatText Format = "text"
)

// Options holds configuration for export operations.
type Options struct {
	Format     Format
	FilePath   string
	Writer     io.Writer // takes precedence over FilePath when set
	PrettyJSON bool
	Overwrite  bool
}

// Exporter writes box score data to the configured destination.
type Exporter struct {
	opts Options
}

// NewExporter creates a new Exporter with the given options.
func NewExporter(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Export writes the report in the configured format.
func (e *Exporter) Export(report *Report) error {
	switch e.opts.Format {
	case FormatCSV:
		return e.exportCSV(report)
	case FormatJSON:
		return e.exportJSON(report)
	case FormatText:
		return e.exportText(report)
	default:
		return fmt.Errorf("unsupported export format: %s", e.opts.Format)
	}
}

func (e *Exporter) exportJSON(report *Report) error {
	var output []byte
	var err error
	if e.opts.PrettyJSON {
		output, err = json.MarshalIndent(report, "", "  ")
	} else {
		output, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return e.write(func(w io.Writer) error {
		_, werr := w.Write(output)
		return werr
	})
}

// exportCSV writes one row per player plus team and opponent summary rows,
// with columns taken from the rows' csv struct tags.
func (e *Exporter) exportCSV(report *Report) error {
	return e.write(func(w io.Writer) error {
		cw := csv.NewWriter(w)
		defer cw.Flush()

		if err := cw.Write(csvHeaders(reflect.TypeOf(PlayerRow{}))); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		for _, row := range report.Players {
			if err := cw.Write(csvValues(reflect.ValueOf(row))); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		for _, row := range []PlayerRow{report.TeamRow(), report.OpponentRow()} {
			if err := cw.Write(csvValues(reflect.ValueOf(row))); err != nil {
				return fmt.Errorf("failed to write CSV summary row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func (e *Exporter) exportText(report *Report) error {
	return e.write(report.writeText)
}

func (e *Exporter) write(fn func(io.Writer) error) error {
	if e.opts.Writer != nil {
		return fn(e.opts.Writer)
	}
	if e.opts.FilePath == "" {
		return fmt.Errorf("no export destination configured")
	}
	if !e.opts.Overwrite {
		if _, err := os.Stat(e.opts.FilePath); err == nil {
			return fmt.Errorf("file already exists: %s", e.opts.FilePath)
		}
	}
	if dir := filepath.Dir(e.opts.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	f, err := os.Create(e.opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()
	return fn(f)
}

// csvHeaders collects column names from csv struct tags, falling back to the
// field name.
func csvHeaders(t reflect.Type) []string {
	headers := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("csv")
		if tag == "-" {
			continue
		}
		if tag == "" {
			tag = f.Name
		}
		headers = append(headers, tag)
	}
	return headers
}

func csvValues(v reflect.Value) []string {
	t := v.Type()
	values := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("csv") == "-" {
			continue
		}
		values = append(values, fmt.Sprintf("%v", v.Field(i).Interface()))
	}
	return values
}
