package serialize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rumor-ml/commons.systems/reportparse/internal/build"
	"github.com/rumor-ml/commons.systems/reportparse/internal/domain"
	"github.com/rumor-ml/commons.systems/reportparse/internal/period"
	"github.com/rumor-ml/commons.systems/reportparse/internal/report"
)

// Serializer walks assembled trees into the output document. The walk
// is pure and deterministic; the only ambient input is the clock, which
// is injectable so identical inputs produce byte-identical output under
// test.
type Serializer struct {
	Clock    func() time.Time
	Currency string
	Basis    string
}

// New creates a serializer with production defaults.
func New() *Serializer {
	return &Serializer{
		Clock:    time.Now,
		Currency: "USD",
		Basis:    "ACCRUAL",
	}
}

const timeLayout = "2006-01-02T15:04:05.000+00:00"

// Serialize emits one PeriodReport per assembled tree, in tree order
// (the builder already ordered periods ascending by start date).
func (s *Serializer) Serialize(kind report.Kind, trees []build.ReportTree) []PeriodReport {
	out := make([]PeriodReport, 0, len(trees))
	for _, tree := range trees {
		out = append(out, PeriodReport{
			Month:     tree.Period.Key,
			StartDate: tree.Period.Start.Format("2006-01-02"),
			EndDate:   tree.Period.End.Format("2006-01-02"),
			Report:    s.serializeTree(kind, tree),
		})
	}
	return out
}

func (s *Serializer) serializeTree(kind report.Kind, tree build.ReportTree) Report {
	hasData := false
	for _, root := range tree.Roots {
		if _, ok := root.Value(tree.Period.Key); ok || len(root.Children) > 0 {
			hasData = true
			break
		}
	}

	rep := Report{
		Header: Header{
			Time:               s.Clock().UTC().Format(timeLayout),
			ReportName:         kind.ReportName(),
			ReportBasis:        s.Basis,
			StartPeriod:        tree.Period.Start.Format("2006-01-02"),
			EndPeriod:          tree.Period.End.Format("2006-01-02"),
			SummarizeColumnsBy: "Total",
			Currency:           s.Currency,
			Option: []Option{
				{Name: "AccountingStandard", Value: "GAAP"},
				{Name: "NoReportData", Value: boolOption(!hasData)},
			},
		},
		Columns: s.columns(tree.Period, hasData),
	}

	rows := make([]RowObject, 0, len(tree.Roots))
	for _, root := range tree.Roots {
		rows = append(rows, s.serializeNode(root, tree.Period))
	}
	rep.Rows = RowsWrap{Row: rows}
	return rep
}

func boolOption(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func (s *Serializer) columns(p period.Period, hasData bool) ColumnsWrap {
	cols := []Column{{
		ColTitle: "",
		ColType:  "Account",
		MetaData: []MetaField{{Name: "ColKey", Value: "account"}},
	}}
	if !hasData {
		return ColumnsWrap{Column: cols}
	}
	if len(p.Columns) > 1 {
		cols = append(cols,
			Column{ColTitle: "Debit", ColType: "Money", MetaData: []MetaField{{Name: "ColKey", Value: "debt_home"}}},
			Column{ColTitle: "Credit", ColType: "Money", MetaData: []MetaField{{Name: "ColKey", Value: "credit_home"}}},
		)
	} else {
		cols = append(cols,
			Column{ColTitle: "Total", ColType: "Money", MetaData: []MetaField{{Name: "ColKey", Value: "total"}}},
		)
	}
	return ColumnsWrap{Column: cols}
}

func (s *Serializer) serializeNode(node *domain.TreeNode, p period.Period) RowObject {
	if node.IsLeaf() {
		return s.leafRow(node, p)
	}
	return s.containerRow(node, p)
}

// leafRow emits a DATA row. A period with no recorded value serializes
// as an empty cell, which downstream consumers distinguish from "0.00".
func (s *Serializer) leafRow(node *domain.TreeNode, p period.Period) RowObject {
	row := RowObject{
		Type:    strPtr("DATA"),
		Group:   tagPtr(node.GroupTag),
		ColData: s.valueCells(node.Name, node.AccountID, node, p),
	}
	return row
}

func (s *Serializer) containerRow(node *domain.TreeNode, p period.Period) RowObject {
	children := make([]RowObject, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, s.serializeNode(child, p))
	}

	row := RowObject{
		Type:  strPtr("SECTION"),
		Group: tagPtr(node.GroupTag),
		Header: &ColDataWrap{ColData: []ColData{
			{Value: node.Name},
			{Value: ""},
		}},
		Summary: &ColDataWrap{ColData: s.summaryCells(node, p)},
		ColData: []ColData{},
	}
	if len(children) > 0 {
		row.Rows = &RowsWrap{Row: children}
	}
	return row
}

// totalLabel builds the summary label: "TOTAL ASSETS" for shouted
// section names, "Total Bank Accounts" otherwise.
func totalLabel(name string) string {
	if name != "" && name == strings.ToUpper(name) {
		return "TOTAL " + name
	}
	return "Total " + name
}

func (s *Serializer) summaryCells(node *domain.TreeNode, p period.Period) []ColData {
	label := node.SummaryLabel
	if label == "" {
		label = totalLabel(node.Name)
	}
	cells := []ColData{{Value: label}}
	return append(cells, s.amountCells(node, p)...)
}

func (s *Serializer) valueCells(name, accountID string, node *domain.TreeNode, p period.Period) []ColData {
	nameCell := ColData{Value: name}
	if accountID != "" {
		nameCell.ID = strPtr(accountID)
	}
	return append([]ColData{nameCell}, s.amountCells(node, p)...)
}

// amountCells formats the node's value for the period: one cell for
// single-column periods, debit/credit cells for paired ones (positive
// values are debits, negatives credits).
func (s *Serializer) amountCells(node *domain.TreeNode, p period.Period) []ColData {
	v, ok := node.Value(p.Key)
	if len(p.Columns) > 1 {
		debit, credit := "", ""
		if ok {
			if v.Sign() >= 0 {
				debit = FormatAmount(v)
			} else {
				credit = FormatAmount(v.Neg())
			}
		}
		return []ColData{{Value: debit}, {Value: credit}}
	}
	value := ""
	if ok {
		value = FormatAmount(v)
	}
	return []ColData{{Value: value}}
}

// FormatAmount renders a currency value the way the output contract
// requires: two decimal places, no thousands separators.
func FormatAmount(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func strPtr(s string) *string { return &s }

func tagPtr(tag string) *string {
	if tag == "" {
		return nil
	}
	return &tag
}
