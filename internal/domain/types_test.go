package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateRole(t *testing.T) {
	t.Run("valid roles", func(t *testing.T) {
		validRoles := []Role{
			RoleSection,
			RoleGroup,
			RoleData,
			RoleTotalFor,
			RoleCalculated,
			RoleGrandTotal,
			RoleNoise,
		}

		for _, role := range validRoles {
			if !ValidateRole(role) {
				t.Errorf("Expected %s to be valid", role)
			}
		}
	})

	t.Run("invalid roles", func(t *testing.T) {
		invalidCases := []Role{
			"",
			"section",  // wrong case
			"DATA ",    // trailing space
			"SUBTOTAL", // not a role
		}

		for _, role := range invalidCases {
			if ValidateRole(role) {
				t.Errorf("Expected %q to be invalid", role)
			}
		}
	})
}

func TestRowCell(t *testing.T) {
	row := Row{NameCell: "Checking", ValueCells: []string{"1,200.00", "300.00"}}

	if got := row.Cell(0); got != "1,200.00" {
		t.Errorf("Cell(0) = %q, want 1,200.00", got)
	}
	if got := row.Cell(1); got != "300.00" {
		t.Errorf("Cell(1) = %q, want 300.00", got)
	}
	if got := row.Cell(2); got != "" {
		t.Errorf("Cell(2) = %q, want empty for out-of-range column", got)
	}
	if got := row.Cell(-1); got != "" {
		t.Errorf("Cell(-1) = %q, want empty for negative column", got)
	}
}

func TestTreeNodeValues(t *testing.T) {
	node := NewTreeNode("Checking", NodeDataItem)

	if _, ok := node.Value("2025-01"); ok {
		t.Error("new node should have no value for any period")
	}

	node.SetValue("2025-01", decimal.NewFromInt(100))
	v, ok := node.Value("2025-01")
	if !ok {
		t.Fatal("expected value for 2025-01 after SetValue")
	}
	if !v.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Value(2025-01) = %s, want 100", v)
	}

	// An explicit zero is present, distinct from a missing period.
	node.SetValue("2025-02", decimal.Zero)
	if _, ok := node.Value("2025-02"); !ok {
		t.Error("explicit zero should be present")
	}
	if _, ok := node.Value("2025-03"); ok {
		t.Error("period never set should be absent")
	}
}

func TestTreeNodeAddChild(t *testing.T) {
	section := NewTreeNode("ASSETS", NodeSection)
	group := NewTreeNode("Bank Accounts", NodeGroup)
	leaf := NewTreeNode("Checking", NodeDataItem)
	calc := NewTreeNode("Net Income", NodeCalculated)

	if err := section.AddChild(group); err != nil {
		t.Fatalf("section.AddChild(group) error = %v", err)
	}
	if err := group.AddChild(leaf); err != nil {
		t.Fatalf("group.AddChild(leaf) error = %v", err)
	}

	if err := leaf.AddChild(NewTreeNode("x", NodeDataItem)); err == nil {
		t.Error("data leaf should reject children")
	}
	if err := calc.AddChild(NewTreeNode("x", NodeDataItem)); err == nil {
		t.Error("calculated leaf should reject children")
	}
	if err := section.AddChild(nil); err == nil {
		t.Error("nil child should be rejected")
	}
}

func TestMismatchString(t *testing.T) {
	m := Mismatch{
		NodeName:  "Bank Accounts",
		PeriodKey: "2025-01",
		Computed:  decimal.NewFromFloat(1500),
		Declared:  decimal.NewFromFloat(1500.25),
	}
	want := "Bank Accounts [2025-01]: declared 1500.25, computed 1500.00"
	if got := m.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
