// Package period parses report column headers into canonical reporting
// periods with date bounds and source column bindings.
package period

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rumor-ml/commons.systems/reportparse/internal/domain"
)

// Period is one reporting column: a canonical key, its date bounds, and
// the value-cell column(s) it owns. Debit/credit-paired reports bind two
// columns to one period.
//
// AssumedYear marks periods whose header text carried no year; the
// current year was substituted and callers should surface that.
type Period struct {
	Key         string
	Start       time.Time
	End         time.Time
	Columns     []int
	Header      string
	AssumedYear bool
}

// ParseError reports a column header that could not be parsed. The
// caller decides whether to skip the column or abort. Column is the
// value-cell index and Row the source row index when known.
type ParseError struct {
	Header string
	Column int
	Row    int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unrecognized period header %q", e.Header)
}

// ErrNoHeader means no row in the document resolved to at least one
// period. Fatal for the document.
var ErrNoHeader = errors.New("no period header row found")

var (
	fullMonthPattern  = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{4})$`)
	partialPattern    = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{1,2})\s*-\s*([A-Za-z]+)\.?\s+(\d{1,2}),?\s*(\d{4})?$`)
	skipColumnPattern = regexp.MustCompile(`(?i)\b(total|ytd|year to date)\b`)
)

func monthNumber(name string) (time.Month, bool) {
	if t, err := time.Parse("January", name); err == nil {
		return t.Month(), true
	}
	if len(name) >= 3 {
		if t, err := time.Parse("Jan", name[:3]); err == nil {
			return t.Month(), true
		}
	}
	return 0, false
}

func lastDay(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Resolve parses a single header cell. now supplies the year fallback
// for headers that omit one; such periods come back with AssumedYear
// set rather than failing.
func Resolve(header string, now time.Time) (Period, error) {
	text := strings.TrimSpace(header)
	if text == "" {
		return Period{}, &ParseError{Header: header}
	}

	if m := partialPattern.FindStringSubmatch(text); m != nil {
		startMonth, ok1 := monthNumber(m[1])
		endMonth, ok2 := monthNumber(m[3])
		if !ok1 || !ok2 {
			return Period{}, &ParseError{Header: header}
		}
		year := now.Year()
		assumed := true
		if m[5] != "" {
			fmt.Sscanf(m[5], "%d", &year)
			assumed = false
		}
		var startDay, endDay int
		fmt.Sscanf(m[2], "%d", &startDay)
		fmt.Sscanf(m[4], "%d", &endDay)

		start := time.Date(year, startMonth, startDay, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, endMonth, endDay, 0, 0, 0, 0, time.UTC)
		if start.Day() != startDay || end.Day() != endDay {
			return Period{}, &ParseError{Header: header}
		}
		// The end month names the period when the range straddles months.
		return Period{
			Key:         fmt.Sprintf("%04d-%02d", year, int(endMonth)),
			Start:       start,
			End:         end,
			Header:      text,
			AssumedYear: assumed,
		}, nil
	}

	if m := fullMonthPattern.FindStringSubmatch(text); m != nil {
		month, ok := monthNumber(m[1])
		if !ok {
			return Period{}, &ParseError{Header: header}
		}
		var year int
		fmt.Sscanf(m[2], "%d", &year)
		return Period{
			Key:    fmt.Sprintf("%04d-%02d", year, int(month)),
			Start:  time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
			End:    time.Date(year, month, lastDay(year, month), 0, 0, 0, 0, time.UTC),
			Header: text,
		}, nil
	}

	return Period{}, &ParseError{Header: header}
}

// ResolveHeader parses one header row's value cells into periods.
// Cells that look like summary columns (Total, YTD) are skipped;
// unparseable cells are skipped and reported so the caller can treat
// the column as noise or abort.
func ResolveHeader(cells []string, now time.Time) (periods []Period, skipped []error) {
	for i, cell := range cells {
		text := strings.TrimSpace(cell)
		if text == "" {
			continue
		}
		if skipColumnPattern.MatchString(text) {
			continue
		}
		p, err := Resolve(text, now)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Column = i
			}
			skipped = append(skipped, err)
			continue
		}
		p.Columns = []int{i}
		periods = append(periods, p)
	}
	return periods, skipped
}

// isDebitCreditRow reports whether a row is a debit/credit sub-header
// row: only "Debit"/"Credit" labels in its value cells.
func isDebitCreditRow(row domain.Row) bool {
	if strings.TrimSpace(row.NameCell) != "" {
		return false
	}
	labels := 0
	for _, cell := range row.ValueCells {
		text := strings.ToLower(strings.TrimSpace(cell))
		switch text {
		case "":
		case "debit", "credit":
			labels++
		default:
			return false
		}
	}
	return labels > 0
}

// pairDebitCredit binds each period to its debit and credit columns
// using the sub-header row beneath the month header. The debit column is
// the period's own column; the credit column is the next cell labeled
// "credit" to its right.
func pairDebitCredit(periods []Period, sub domain.Row) []Period {
	paired := make([]Period, len(periods))
	copy(paired, periods)
	for i := range paired {
		own := paired[i].Columns[0]
		for col := own + 1; col < len(sub.ValueCells); col++ {
			if strings.EqualFold(strings.TrimSpace(sub.ValueCells[col]), "credit") {
				paired[i].Columns = append(paired[i].Columns, col)
				break
			}
		}
	}
	return paired
}

// LocateHeader scans rows for the first one that resolves to at least
// one period, consuming a debit/credit sub-header row when one follows.
// Returns the resolved periods (ascending by start date, deduplicated),
// the index of the first data row, and any header cells that were
// skipped as unparseable; the caller decides whether skipped columns
// are noise or grounds to abort. Returns ErrNoHeader when no row
// qualifies.
func LocateHeader(rows []domain.Row, now time.Time) (periods []Period, dataStart int, skipped []error, err error) {
	for i, row := range rows {
		found, skippedCells := ResolveHeader(row.ValueCells, now)
		if len(found) == 0 {
			continue
		}
		for _, serr := range skippedCells {
			var pe *ParseError
			if errors.As(serr, &pe) {
				pe.Row = row.RawIndex
			}
		}
		dataStart = i + 1
		if dataStart < len(rows) && isDebitCreditRow(rows[dataStart]) {
			found = pairDebitCredit(found, rows[dataStart])
			dataStart++
		}
		return Sorted(found), dataStart, skippedCells, nil
	}
	return nil, 0, nil, ErrNoHeader
}

// Sorted returns the periods ascending by start date with duplicate
// keys removed. Source column order is irrelevant to output ordering.
func Sorted(periods []Period) []Period {
	out := make([]Period, 0, len(periods))
	seen := make(map[string]bool)
	for _, p := range periods {
		if seen[p.Key] {
			continue
		}
		seen[p.Key] = true
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
