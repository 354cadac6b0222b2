package classify

import (
	"strings"

	"github.com/rumor-ml/commons.systems/reportparse/internal/domain"
)

// DefaultLookahead is how many rows ahead the classifier scans for a
// matching "Total for X" row before deciding a row is not a group.
// Bounded so pathological documents cannot force full-document scans
// per row.
const DefaultLookahead = 50

const totalForPrefix = "total for "

// Classifier assigns structural roles to rows. Stateless between calls;
// all lookahead happens over the slice passed to Classify.
type Classifier struct {
	vocab     *Vocabulary
	lookahead int
}

// New creates a classifier over the given vocabulary.
func New(vocab *Vocabulary) *Classifier {
	return &Classifier{
		vocab:     vocab,
		lookahead: DefaultLookahead,
	}
}

// SetLookahead overrides the lookahead horizon.
func (c *Classifier) SetLookahead(n int) {
	if n > 0 {
		c.lookahead = n
	}
}

// totalForTarget extracts X from a "Total for X" row name, or returns
// "" when the name is not a total-for row.
func totalForTarget(name string) string {
	lower := strings.ToLower(name)
	if !strings.HasPrefix(lower, totalForPrefix) {
		return ""
	}
	return strings.TrimSpace(name[len(totalForPrefix):])
}

// allCellsEmpty reports whether every value cell is empty or zero.
func allCellsEmpty(row domain.Row) bool {
	for _, cell := range row.ValueCells {
		if !domain.IsZeroOrEmptyCell(cell) {
			return false
		}
	}
	return true
}

// Classify assigns a role to every row, in document order. NOISE rows
// are kept in the output (callers drop them before tree assembly) so
// raw indexes survive for diagnostics.
//
// Precedence is fixed: noise filtering, then structural keywords, then
// group lookahead, then the all-empty section test, then data. Keyword
// rows are never reinterpreted as groups or sections even when their
// value cells are all empty.
func (c *Classifier) Classify(rows []domain.Row) []domain.ClassifiedRow {
	out := make([]domain.ClassifiedRow, 0, len(rows))
	for i := range rows {
		out = append(out, c.classifyAt(rows, i))
	}
	return out
}

func (c *Classifier) classifyAt(rows []domain.Row, idx int) domain.ClassifiedRow {
	row := rows[idx]
	name := strings.TrimSpace(row.NameCell)

	if name == "" && allCellsEmpty(row) {
		return domain.ClassifiedRow{Row: row, Role: domain.RoleNoise}
	}
	if c.vocab.isNoise(name) {
		return domain.ClassifiedRow{Row: row, Role: domain.RoleNoise}
	}

	if target := totalForTarget(name); target != "" {
		return domain.ClassifiedRow{Row: row, Role: domain.RoleTotalFor, TargetName: target}
	}
	if c.vocab.isGrandTotal(name) {
		return domain.ClassifiedRow{Row: row, Role: domain.RoleGrandTotal}
	}
	if tag := c.vocab.calculatedMatch(name); tag != "" {
		return domain.ClassifiedRow{Row: row, Role: domain.RoleCalculated, GroupTag: tag}
	}

	if c.closedLater(rows, idx, name) {
		return domain.ClassifiedRow{Row: row, Role: domain.RoleGroup, GroupTag: c.vocab.GroupTag(name)}
	}

	if allCellsEmpty(row) {
		return domain.ClassifiedRow{Row: row, Role: domain.RoleSection, GroupTag: c.vocab.GroupTag(name)}
	}

	return domain.ClassifiedRow{Row: row, Role: domain.RoleData}
}

// closedLater scans the lookahead window for a "Total for <name>" row.
func (c *Classifier) closedLater(rows []domain.Row, idx int, name string) bool {
	limit := idx + 1 + c.lookahead
	if limit > len(rows) {
		limit = len(rows)
	}
	for j := idx + 1; j < limit; j++ {
		target := totalForTarget(strings.TrimSpace(rows[j].NameCell))
		if target != "" && strings.EqualFold(target, name) {
			return true
		}
	}
	return false
}
