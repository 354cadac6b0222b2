package pdftext

import (
	"testing"
)

func TestCanParse(t *testing.T) {
	a := New()

	if !a.CanParse("report.pdf", []byte("%PDF-1.7")) {
		t.Error("should accept a pdf with the magic")
	}
	if a.CanParse("report.pdf", []byte("Account,January")) {
		t.Error("should reject a .pdf without the magic")
	}
	if a.CanParse("report.csv", []byte("%PDF-1.7")) {
		t.Error("should reject non-pdf extensions")
	}
}

func TestSplitLineDataRow(t *testing.T) {
	row := splitLine("Checking Account   1,200.00   (300.00)", 4)
	if row.NameCell != "Checking Account" {
		t.Errorf("NameCell = %q, want Checking Account", row.NameCell)
	}
	if len(row.ValueCells) != 2 || row.ValueCells[0] != "1,200.00" || row.ValueCells[1] != "(300.00)" {
		t.Errorf("ValueCells = %v", row.ValueCells)
	}
	if row.RawIndex != 4 {
		t.Errorf("RawIndex = %d, want 4", row.RawIndex)
	}
}

func TestSplitLineDashPlaceholder(t *testing.T) {
	row := splitLine("Savings   -   500.00", 0)
	if row.NameCell != "Savings" {
		t.Errorf("NameCell = %q, want Savings", row.NameCell)
	}
	if len(row.ValueCells) != 2 || row.ValueCells[0] != "-" {
		t.Errorf("ValueCells = %v, want dash then amount", row.ValueCells)
	}
}

func TestSplitLineNameOnly(t *testing.T) {
	row := splitLine("Bank Accounts", 0)
	if row.NameCell != "Bank Accounts" || len(row.ValueCells) != 0 {
		t.Errorf("row = %+v", row)
	}
}

func TestSplitLineBlank(t *testing.T) {
	row := splitLine("   ", 0)
	if row.NameCell != "" || len(row.ValueCells) != 0 {
		t.Errorf("row = %+v", row)
	}
}

func TestSplitLineHeader(t *testing.T) {
	row := splitLine("January 2025    February 2025", 0)
	if row.NameCell != "" {
		t.Errorf("header line should have no name cell, got %q", row.NameCell)
	}
	if len(row.ValueCells) != 2 || row.ValueCells[0] != "January 2025" || row.ValueCells[1] != "February 2025" {
		t.Errorf("ValueCells = %v", row.ValueCells)
	}
}

func TestSplitLineHeaderPartialRange(t *testing.T) {
	row := splitLine("Jul 1 - Jul 27, 2025", 0)
	if row.NameCell != "" {
		t.Errorf("header line should have no name cell, got %q", row.NameCell)
	}
	if len(row.ValueCells) != 1 || row.ValueCells[0] != "Jul 1 - Jul 27, 2025" {
		t.Errorf("ValueCells = %v, want the full range as one cell", row.ValueCells)
	}
}

func TestSplitLineNameBeforeMonthIsNotHeader(t *testing.T) {
	// Account names can contain month-like words; text before the first
	// month match keeps the line a data row.
	row := splitLine("Rent due May 2025   900.00", 0)
	if row.NameCell == "" {
		t.Error("line with leading text should not be treated as a header")
	}
}
