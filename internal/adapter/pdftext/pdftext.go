// Package pdftext adapts text-layer PDF report exports. Extraction is
// best-effort: the text layer loses column geometry, so lines are
// re-split into name and value cells by trailing amount tokens.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/rumor-ml/commons.systems/reportparse/internal/adapter"
	"github.com/rumor-ml/commons.systems/reportparse/internal/domain"
)

// Adapter reads PDF files with an extractable text layer. Scanned
// image PDFs yield no text and fail with a clear error.
type Adapter struct{}

// New creates a pdftext adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string { return "pdftext" }

// CanParse accepts .pdf files with the PDF magic.
func (a *Adapter) CanParse(path string, header []byte) bool {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return false
	}
	return bytes.HasPrefix(header, []byte("%PDF"))
}

// Extract pulls the text layer and re-splits each line into cells.
func (a *Adapter) Extract(ctx context.Context, r io.Reader, meta *adapter.Metadata) ([]domain.Row, error) {
	// The PDF library needs a ReadSeeker and a size, so spool to a
	// temp file first.
	tmp, err := os.CreateTemp("", "reportparse-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("spool pdf: %w", err)
	}
	tmp.Close()

	text, err := extractText(ctx, tmpPath)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("pdf has no extractable text layer (scanned image?)")
	}

	var rows []domain.Row
	for i, line := range strings.Split(text, "\n") {
		rows = append(rows, splitLine(line, i))
	}
	return rows, nil
}

func extractText(ctx context.Context, path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\n")
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

var (
	// amountToken matches one trailing value cell: an optionally
	// parenthesized or $-prefixed amount, or a lone "-" placeholder.
	amountToken = regexp.MustCompile(`^(\(?-?\$?[\d,]+(?:\.\d+)?\)?|-)$`)

	// monthToken recognizes header lines listing period names, like
	// "January 2025" or "Jul 1 - Jul 27, 2025".
	monthToken = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?\s+\d`)
)

// splitLine rebuilds cells from a flattened text line. Trailing
// amount-shaped tokens become value cells, the rest is the name cell.
// Lines that are period headers keep the header text as value cells so
// header location works the same as for delimited input.
func splitLine(line string, index int) domain.Row {
	row := domain.Row{RawIndex: index}
	trimmed := strings.TrimRight(line, " \t\r")
	if strings.TrimSpace(trimmed) == "" {
		return row
	}

	if headers := splitHeaders(trimmed); headers != nil {
		row.ValueCells = headers
		return row
	}

	fields := strings.Fields(trimmed)
	split := len(fields)
	for split > 0 && amountToken.MatchString(fields[split-1]) {
		split--
	}

	row.NameCell = strings.Join(fields[:split], " ")
	row.ValueCells = fields[split:]
	return row
}

// splitHeaders returns the period header cells when the line consists
// of period names only, or nil otherwise.
func splitHeaders(line string) []string {
	matches := monthToken.FindAllStringIndex(line, -1)
	if len(matches) == 0 {
		return nil
	}
	// A header line has no account name text before the first period.
	if strings.TrimSpace(line[:matches[0][0]]) != "" {
		return nil
	}

	// A month match preceded by a dash continues a range like
	// "Jul 1 - Jul 27, 2025" rather than starting a new cell.
	var starts []int
	for i, m := range matches {
		if i == 0 {
			starts = append(starts, m[0])
			continue
		}
		gap := strings.TrimSpace(line[matches[i-1][0]:m[0]])
		if strings.HasSuffix(gap, "-") {
			continue
		}
		starts = append(starts, m[0])
	}

	var cells []string
	for i, start := range starts {
		end := len(line)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		cells = append(cells, strings.TrimSpace(line[start:end]))
	}
	return cells
}
