// Package build assembles classified rows into report trees, one per
// reporting period, accumulating totals bottom-up and reconciling them
// against declared "Total for X" rows.
package build

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rumor-ml/commons.systems/reportparse/internal/domain"
	"github.com/rumor-ml/commons.systems/reportparse/internal/identity"
	"github.com/rumor-ml/commons.systems/reportparse/internal/period"
)

// tolerance is the absolute epsilon under which a declared total and
// the computed child sum are considered equal.
var tolerance = decimal.New(1, -6)

// ReportTree is the assembled tree for one reporting period. Trees for
// different periods share node pointers; nodes are read-only after
// assembly.
type ReportTree struct {
	Period period.Period
	Roots  []*domain.TreeNode
}

// Warning is a non-fatal anomaly absorbed during assembly, such as a
// "Total for X" row with no matching open construct.
type Warning struct {
	RawIndex int
	Message  string
}

// Result is the outcome of assembling one document's row stream.
type Result struct {
	Periods    []period.Period
	Roots      []*domain.TreeNode
	Trees      []ReportTree
	Mismatches []domain.Mismatch
	Warnings   []Warning
}

// Builder assembles one document at a time. It owns all mutable parse
// state for the duration of a Build call; a Builder must not be shared
// across concurrent conversions, though the identity resolver's table
// may be.
type Builder struct {
	resolver *identity.Resolver
}

// New creates a builder that resolves account identifiers through the
// given resolver.
func New(resolver *identity.Resolver) *Builder {
	return &Builder{resolver: resolver}
}

// state is the per-document assembly state: the open-construct stack
// and the accumulated roots.
type state struct {
	periods []period.Period
	stack   []*domain.TreeNode
	roots   []*domain.TreeNode
	result  *Result
}

// Build consumes the classified row stream and assembles the report
// trees. NOISE rows are dropped; per-row anomalies are recovered and
// recorded as warnings rather than failing the document.
func (b *Builder) Build(ctx context.Context, rows []domain.ClassifiedRow, periods []period.Period) (*Result, error) {
	if len(periods) == 0 {
		return nil, fmt.Errorf("cannot build trees without periods")
	}

	st := &state{
		periods: periods,
		result:  &Result{Periods: periods},
	}

	for _, row := range rows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		switch row.Role {
		case domain.RoleNoise:
			// Dropped before assembly.
		case domain.RoleSection:
			// Sections never nest: a new one ends whatever is open and
			// starts as a sibling root.
			st.closeAll()
			st.push(domain.NewTreeNode(trimName(row), domain.NodeSection), row.GroupTag)
		case domain.RoleGroup:
			st.push(domain.NewTreeNode(trimName(row), domain.NodeGroup), row.GroupTag)
		case domain.RoleData:
			node := domain.NewTreeNode(trimName(row), domain.NodeDataItem)
			node.AccountID = b.resolver.Resolve(ctx, node.Name)
			setRowValues(node, row.Row, periods)
			st.attach(node)
		case domain.RoleCalculated:
			if st.closeSectionSummary(row) {
				break
			}
			node := domain.NewTreeNode(trimName(row), domain.NodeCalculated)
			node.GroupTag = row.GroupTag
			setRowValues(node, row.Row, periods)
			st.attach(node)
		case domain.RoleTotalFor:
			st.closeNamed(row)
		case domain.RoleGrandTotal:
			st.closeAll()
			node := domain.NewTreeNode(trimName(row), domain.NodeCalculated)
			node.GroupTag = "GrandTotal"
			setRowValues(node, row.Row, periods)
			st.roots = append(st.roots, node)
		default:
			return nil, fmt.Errorf("unknown row role %q at row %d", row.Role, row.RawIndex)
		}
	}

	// Constructs never explicitly closed take their bottom-up sums.
	// Common for innermost leaf groups in several report shapes.
	st.closeAll()

	st.result.Roots = st.roots
	for _, p := range periods {
		st.result.Trees = append(st.result.Trees, ReportTree{Period: p, Roots: st.roots})
	}
	return st.result, nil
}

func trimName(row domain.ClassifiedRow) string {
	return identity.Normalize(row.NameCell)
}

// cellValue reads a period's value off a row. For debit/credit-paired
// periods the value is signed: debit minus credit.
func cellValue(row domain.Row, p period.Period) (decimal.Decimal, bool) {
	switch len(p.Columns) {
	case 0:
		return decimal.Zero, false
	case 1:
		return domain.ParseAmount(row.Cell(p.Columns[0]))
	default:
		debit, dok := domain.ParseAmount(row.Cell(p.Columns[0]))
		credit, cok := domain.ParseAmount(row.Cell(p.Columns[1]))
		if !dok && !cok {
			return decimal.Zero, false
		}
		return debit.Sub(credit), true
	}
}

func setRowValues(node *domain.TreeNode, row domain.Row, periods []period.Period) {
	for _, p := range periods {
		if v, ok := cellValue(row, p); ok {
			node.SetValue(p.Key, v)
		}
	}
}

// computedSum totals direct children for one period. The second return
// is false when no child carries a value for the period, which keeps
// "no activity" distinct from an explicit zero.
func computedSum(node *domain.TreeNode, key string) (decimal.Decimal, bool) {
	sum := decimal.Zero
	present := false
	for _, child := range node.Children {
		if v, ok := child.Value(key); ok {
			sum = sum.Add(v)
			present = true
		}
	}
	return sum, present
}

func (st *state) push(node *domain.TreeNode, tag string) {
	node.GroupTag = tag
	st.attach(node)
	st.stack = append(st.stack, node)
}

func (st *state) attach(node *domain.TreeNode) {
	if len(st.stack) == 0 {
		st.roots = append(st.roots, node)
		return
	}
	top := st.stack[len(st.stack)-1]
	if err := top.AddChild(node); err != nil {
		// Leaves never reach the stack, so this cannot fire; recorded
		// defensively instead of silently dropping a node.
		st.result.Warnings = append(st.result.Warnings,
			Warning{Message: fmt.Sprintf("dropped node %q: %v", node.Name, err)})
	}
}

// closeComputed finalizes a frame with its bottom-up sums, keeping any
// value already declared.
func (st *state) closeComputed(node *domain.TreeNode) {
	for _, p := range st.periods {
		if _, ok := node.Value(p.Key); ok {
			continue
		}
		if sum, ok := computedSum(node, p.Key); ok {
			node.SetValue(p.Key, sum)
		}
	}
}

// closeAll force-closes every open frame, innermost first.
func (st *state) closeAll() {
	for len(st.stack) > 0 {
		st.closeComputed(st.stack[len(st.stack)-1])
		st.stack = st.stack[:len(st.stack)-1]
	}
}

// closeNamed handles a "Total for X" row: pop frames until the one
// named X, give it the declared totals, and record a mismatch when the
// declared total disagrees with the computed sum beyond tolerance. The
// declared value stays authoritative either way.
//
// A total with no matching open frame is recovered as noise, not a
// failure.
func (st *state) closeNamed(row domain.ClassifiedRow) {
	match := -1
	for i := len(st.stack) - 1; i >= 0; i-- {
		if equalFoldTrim(st.stack[i].Name, row.TargetName) {
			match = i
			break
		}
	}
	if match == -1 {
		st.result.Warnings = append(st.result.Warnings, Warning{
			RawIndex: row.RawIndex,
			Message:  fmt.Sprintf("total row for %q matches no open construct; ignored", row.TargetName),
		})
		return
	}

	// Inner frames between the match and the top never saw their own
	// total row; close them with computed sums.
	for len(st.stack) > match+1 {
		st.closeComputed(st.stack[len(st.stack)-1])
		st.stack = st.stack[:len(st.stack)-1]
	}

	node := st.stack[match]
	st.stack = st.stack[:match]
	st.assignDeclared(node, row.Row)
}

// closeSectionSummary treats a calculated row whose text ends with an
// open section's name ("Net cash provided by operating activities") as
// that section's closing total. Cash flow reports end their sections
// this way instead of with "Total for X" rows. Returns false when no
// open section matches, leaving the row to attach as a leaf.
func (st *state) closeSectionSummary(row domain.ClassifiedRow) bool {
	name := identity.Normalize(row.NameCell)
	match := -1
	for i := len(st.stack) - 1; i >= 0; i-- {
		frame := st.stack[i]
		if frame.Kind == domain.NodeSection && hasFoldSuffix(name, frame.Name) {
			match = i
			break
		}
	}
	if match == -1 {
		return false
	}

	for len(st.stack) > match+1 {
		st.closeComputed(st.stack[len(st.stack)-1])
		st.stack = st.stack[:len(st.stack)-1]
	}
	node := st.stack[match]
	st.stack = st.stack[:match]
	node.SummaryLabel = name
	st.assignDeclared(node, row.Row)
	return true
}

// assignDeclared gives a closing frame its declared per-period totals,
// recording a mismatch when the declared value disagrees with the
// computed child sum beyond tolerance. Periods with no declared cell
// fall back to the computed sum.
func (st *state) assignDeclared(node *domain.TreeNode, row domain.Row) {
	for _, p := range st.periods {
		declared, ok := cellValue(row, p)
		if !ok {
			if sum, sok := computedSum(node, p.Key); sok {
				node.SetValue(p.Key, sum)
			}
			continue
		}
		if sum, sok := computedSum(node, p.Key); sok {
			if declared.Sub(sum).Abs().GreaterThan(tolerance) {
				st.result.Mismatches = append(st.result.Mismatches, domain.Mismatch{
					NodeName:  node.Name,
					PeriodKey: p.Key,
					Computed:  sum,
					Declared:  declared,
				})
			}
		}
		node.SetValue(p.Key, declared)
	}
}

func hasFoldSuffix(name, section string) bool {
	section = identity.Normalize(section)
	if section == "" || len(name) < len(section) {
		return false
	}
	return strings.EqualFold(name[len(name)-len(section):], section)
}

func equalFoldTrim(a, b string) bool {
	na := identity.Normalize(a)
	return na != "" && strings.EqualFold(na, identity.Normalize(b))
}
