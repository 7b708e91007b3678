// Package csvfile loads the household energy-usage dataset from a delimited file.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
)

// ctxCheckEvery is how many rows are parsed between context checks.
const ctxCheckEvery = 1024

// Loader reads the dataset at Path into a domain.Table.
type Loader struct {
	Path   string
	Comma  rune // field delimiter; 0 means ','
	logger *slog.Logger
}

// NewLoader creates a Loader for a comma-separated file.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{Path: path, logger: logger}
}

// Load opens the file and parses it. Every failure is a *domain.LoadError.
func (l *Loader) Load(ctx context.Context) (domain.Table, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Table{}, &domain.LoadError{Path: l.Path, Err: domain.ErrFileNotFound}
		}
		return domain.Table{}, &domain.LoadError{Path: l.Path, Err: err}
	}
	defer f.Close()

	table, err := Parse(ctx, f, l.Path, l.Comma)
	if err != nil {
		return domain.Table{}, err
	}
	if l.logger != nil {
		l.logger.Info("dataset loaded",
			"path", l.Path,
			"records", table.Len(),
			"countries", len(table.Countries()),
		)
	}
	return table, nil
}

// Parse reads a header row followed by data rows from r. name is used only in
// error messages. A header without data rows yields an empty table.
func Parse(ctx context.Context, r io.Reader, name string, comma rune) (domain.Table, error) {
	cr := csv.NewReader(r)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Table{}, &domain.LoadError{Path: name, Err: domain.ErrEmptyDataset}
	}
	if err != nil {
		return domain.Table{}, &domain.LoadError{Path: name, Line: 1, Err: fmt.Errorf("%w: %v", domain.ErrMalformedRow, err)}
	}

	idx, err := indexColumns(header)
	if err != nil {
		return domain.Table{}, &domain.LoadError{Path: name, Line: 1, Column: missingColumn(err), Err: err}
	}

	var records []domain.UsageRecord
	for n := 1; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return domain.Table{}, &domain.LoadError{Path: name, Err: err}
			}
		}

		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			le := &domain.LoadError{Path: name, Err: fmt.Errorf("%w: %v", domain.ErrMalformedRow, err)}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				le.Line = pe.StartLine
			}
			return domain.Table{}, le
		}
		if blank(row) {
			continue
		}

		rec, err := domain.ParseUsageRow(idx.raw(row))
		if err != nil {
			line, _ := cr.FieldPos(0)
			le := &domain.LoadError{Path: name, Line: line, Err: fmt.Errorf("%w: %v", domain.ErrMalformedRow, err)}
			var fe *domain.FieldError
			if errors.As(err, &fe) {
				le.Column = fe.Column
			}
			return domain.Table{}, le
		}
		records = append(records, rec)
	}

	return domain.NewTable(records), nil
}

// columnIndex maps each required column to its position in the header.
type columnIndex map[string]int

type missingColumnError struct{ column string }

func (e *missingColumnError) Error() string { return domain.ErrMissingColumn.Error() + ": " + e.column }
func (e *missingColumnError) Unwrap() error { return domain.ErrMissingColumn }

func missingColumn(err error) string {
	var mc *missingColumnError
	if errors.As(err, &mc) {
		return mc.column
	}
	return ""
}

// indexColumns matches required columns case-insensitively. Extra columns
// are ignored; when a name repeats, the first occurrence is used.
func indexColumns(header []string) (columnIndex, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := byName[key]; !dup {
			byName[key] = i
		}
	}

	idx := make(columnIndex, len(domain.RequiredColumns))
	for _, col := range domain.RequiredColumns {
		i, ok := byName[strings.ToLower(col)]
		if !ok {
			return nil, &missingColumnError{column: col}
		}
		idx[col] = i
	}
	return idx, nil
}

func (idx columnIndex) cell(row []string, col string) string {
	i := idx[col]
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func (idx columnIndex) raw(row []string) domain.RawUsageRow {
	return domain.RawUsageRow{
		Country:       idx.cell(row, domain.ColumnCountry),
		EnergySource:  idx.cell(row, domain.ColumnEnergySource),
		Year:          idx.cell(row, domain.ColumnYear),
		HouseholdSize: idx.cell(row, domain.ColumnHouseholdSize),
		Usage:         idx.cell(row, domain.ColumnUsage),
		Savings:       idx.cell(row, domain.ColumnSavings),
	}
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
