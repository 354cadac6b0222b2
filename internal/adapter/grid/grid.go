// Package grid adapts spreadsheet workbook exports.
package grid

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rumor-ml/commons.systems/reportparse/internal/adapter"
	"github.com/rumor-ml/commons.systems/reportparse/internal/domain"
)

// Adapter reads .xlsx workbooks. Only the first sheet is read; report
// exports put the statement there.
type Adapter struct{}

// New creates a grid adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string { return "grid" }

// CanParse accepts .xlsx files. The zip magic is checked so a renamed
// CSV doesn't reach the workbook reader.
func (a *Adapter) CanParse(path string, header []byte) bool {
	if strings.ToLower(filepath.Ext(path)) != ".xlsx" {
		return false
	}
	return bytes.HasPrefix(header, []byte("PK"))
}

// Extract reads the first sheet into rows, first column as the name
// cell. Formatted cell text is kept verbatim so amount parsing sees
// what the export wrote.
func (a *Adapter) Extract(ctx context.Context, r io.Reader, meta *adapter.Metadata) ([]domain.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	rows := make([]domain.Row, 0, len(records))
	for i, record := range records {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row := domain.Row{RawIndex: i}
		if len(record) > 0 {
			row.NameCell = record[0]
			row.ValueCells = record[1:]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
