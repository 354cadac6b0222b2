// Package domain defines the shared types for hierarchical report
// reconstruction: raw rows, classified rows, and the report tree.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Role is the structural role assigned to a row by the classifier.
// Use ValidateRole to ensure validity before use.
type Role string

const (
	RoleSection    Role = "SECTION"
	RoleGroup      Role = "GROUP"
	RoleData       Role = "DATA"
	RoleTotalFor   Role = "TOTAL_FOR"
	RoleCalculated Role = "CALCULATED"
	RoleGrandTotal Role = "GRAND_TOTAL"
	RoleNoise      Role = "NOISE"
)

var validRoles = map[Role]struct{}{
	RoleSection: {}, RoleGroup: {}, RoleData: {}, RoleTotalFor: {},
	RoleCalculated: {}, RoleGrandTotal: {}, RoleNoise: {},
}

// ValidateRole checks if a role is one of the known constants.
func ValidateRole(r Role) bool {
	_, ok := validRoles[r]
	return ok
}

// Row is one raw row produced by a format adapter: a name cell followed
// by positional value cells. Immutable once produced.
type Row struct {
	NameCell   string
	ValueCells []string
	RawIndex   int
}

// Cell returns the value cell at column index, or "" when the row is
// shorter than the requested column.
func (r Row) Cell(col int) string {
	if col < 0 || col >= len(r.ValueCells) {
		return ""
	}
	return r.ValueCells[col]
}

// ClassifiedRow is a Row with its structural role attached. TargetName
// carries the group name a TOTAL_FOR row closes; GroupTag carries the
// semantic category inferred from the keyword table, when any.
type ClassifiedRow struct {
	Row
	Role       Role
	TargetName string
	GroupTag   string
}

// NodeKind distinguishes the tree node variants.
type NodeKind string

const (
	NodeSection    NodeKind = "section"
	NodeGroup      NodeKind = "group"
	NodeDataItem   NodeKind = "data"
	NodeCalculated NodeKind = "calculated"
)

// TreeNode is one node of the reconstructed report tree. Leaf nodes
// (DataItem, CalculatedLine) carry values directly; container nodes
// carry the resolved total per period.
//
// Values are keyed by period key. A missing key means the node had no
// activity in that period, which is distinct from an explicit zero.
type TreeNode struct {
	Name      string
	Kind      NodeKind
	GroupTag  string
	AccountID string
	Children  []*TreeNode

	// SummaryLabel overrides the derived "Total <Name>" summary text
	// when a named subtotal row closed the node, e.g. "Net cash
	// provided by operating activities".
	SummaryLabel string

	values map[string]decimal.Decimal
}

// NewTreeNode creates a node with an initialized value map.
func NewTreeNode(name string, kind NodeKind) *TreeNode {
	return &TreeNode{
		Name:   name,
		Kind:   kind,
		values: make(map[string]decimal.Decimal),
	}
}

// SetValue records the node's value for a period.
func (n *TreeNode) SetValue(periodKey string, v decimal.Decimal) {
	if n.values == nil {
		n.values = make(map[string]decimal.Decimal)
	}
	n.values[periodKey] = v
}

// Value returns the node's value for a period and whether one exists.
func (n *TreeNode) Value(periodKey string) (decimal.Decimal, bool) {
	v, ok := n.values[periodKey]
	return v, ok
}

// IsLeaf reports whether the node can carry children.
func (n *TreeNode) IsLeaf() bool {
	return n.Kind == NodeDataItem || n.Kind == NodeCalculated
}

// AddChild appends a child, rejecting children on leaf nodes.
func (n *TreeNode) AddChild(child *TreeNode) error {
	if child == nil {
		return fmt.Errorf("child cannot be nil")
	}
	if n.IsLeaf() {
		return fmt.Errorf("%s node %q cannot have children", n.Kind, n.Name)
	}
	n.Children = append(n.Children, child)
	return nil
}

// Mismatch records a disagreement between a declared total and the
// bottom-up computed sum of children. Non-fatal; the declared value is
// authoritative in the tree.
type Mismatch struct {
	NodeName  string
	PeriodKey string
	Computed  decimal.Decimal
	Declared  decimal.Decimal
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s [%s]: declared %s, computed %s",
		m.NodeName, m.PeriodKey, m.Declared.StringFixed(2), m.Computed.StringFixed(2))
}
