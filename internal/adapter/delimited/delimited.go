// Package delimited adapts comma-separated report exports.
package delimited

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rumor-ml/commons.systems/reportparse/internal/adapter"
	"github.com/rumor-ml/commons.systems/reportparse/internal/domain"
)

// Adapter reads CSV exports. Exports in the wild have ragged records,
// stray quotes, and indented name cells, so the reader is lenient.
type Adapter struct{}

// New creates a delimited adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string { return "delimited" }

// CanParse accepts .csv files whose header bytes are not a known
// binary magic.
func (a *Adapter) CanParse(path string, header []byte) bool {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return false
	}
	return !bytes.HasPrefix(header, []byte("PK")) && !bytes.HasPrefix(header, []byte("%PDF"))
}

// Extract reads every record into a row, first field as the name cell
// and the remainder as value cells. Source order and cell text are
// preserved; classification happens downstream.
func (a *Adapter) Extract(ctx context.Context, r io.Reader, meta *adapter.Metadata) ([]domain.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = false

	var rows []domain.Row
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", i, err)
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
