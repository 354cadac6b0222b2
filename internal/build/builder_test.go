package build

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rumor-ml/commons.systems/reportparse/internal/domain"
	"github.com/rumor-ml/commons.systems/reportparse/internal/identity"
	"github.com/rumor-ml/commons.systems/reportparse/internal/period"
)

func singlePeriod() []period.Period {
	return []period.Period{{Key: "2025-01", Columns: []int{0}}}
}

func classified(role domain.Role, name string, cells ...string) domain.ClassifiedRow {
	return domain.ClassifiedRow{
		Row:  domain.Row{NameCell: name, ValueCells: cells},
		Role: role,
	}
}

func totalFor(target string, cells ...string) domain.ClassifiedRow {
	cr := classified(domain.RoleTotalFor, "Total for "+target, cells...)
	cr.TargetName = target
	return cr
}

func newBuilder() *Builder {
	return New(identity.NewResolver(identity.NewTable(), nil))
}

func value(t *testing.T, node *domain.TreeNode, key string) decimal.Decimal {
	t.Helper()
	v, ok := node.Value(key)
	if !ok {
		t.Fatalf("node %q has no value for %s", node.Name, key)
	}
	return v
}

func TestBuildNestedGroups(t *testing.T) {
	rows := []domain.ClassifiedRow{
		classified(domain.RoleSection, "ASSETS"),
		classified(domain.RoleGroup, "Bank Accounts"),
		classified(domain.RoleData, "Checking", "1200.00"),
		classified(domain.RoleData, "Savings", "300.00"),
		totalFor("Bank Accounts", "1500.00"),
	}

	result, err := newBuilder().Build(context.Background(), rows, singlePeriod())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(result.Roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(result.Roots))
	}
	section := result.Roots[0]
	if section.Name != "ASSETS" || section.Kind != domain.NodeSection {
		t.Errorf("root = %s/%s, want ASSETS/section", section.Name, section.Kind)
	}
	if len(section.Children) != 1 {
		t.Fatalf("section has %d children, want 1", len(section.Children))
	}

	group := section.Children[0]
	if group.Name != "Bank Accounts" || len(group.Children) != 2 {
		t.Fatalf("group = %s with %d children, want Bank Accounts with 2", group.Name, len(group.Children))
	}
	if got := value(t, group, "2025-01"); !got.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("group total = %s, want 1500", got)
	}
	// Section was never explicitly closed; it takes the bottom-up sum.
	if got := value(t, section, "2025-01"); !got.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("section total = %s, want 1500", got)
	}
	if len(result.Mismatches) != 0 {
		t.Errorf("got %d mismatches, want 0", len(result.Mismatches))
	}
}

func TestBuildDeclaredTotalWins(t *testing.T) {
	rows := []domain.ClassifiedRow{
		classified(domain.RoleGroup, "Bank Accounts"),
		classified(domain.RoleData, "Checking", "100.00"),
		totalFor("Bank Accounts", "150.00"), // disagrees with computed 100
	}

	result, err := newBuilder().Build(context.Background(), rows, singlePeriod())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	group := result.Roots[0]
	if got := value(t, group, "2025-01"); !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("group total = %s, want declared 150", got)
	}
	if len(result.Mismatches) != 1 {
		t.Fatalf("got %d mismatches, want 1", len(result.Mismatches))
	}
	m := result.Mismatches[0]
	if m.NodeName != "Bank Accounts" || m.PeriodKey != "2025-01" {
		t.Errorf("mismatch = %+v, want Bank Accounts / 2025-01", m)
	}
	if !m.Computed.Equal(decimal.NewFromInt(100)) || !m.Declared.Equal(decimal.NewFromInt(150)) {
		t.Errorf("mismatch values = computed %s declared %s, want 100/150", m.Computed, m.Declared)
	}
}

func TestBuildWithinTolerance(t *testing.T) {
	rows := []domain.ClassifiedRow{
		classified(domain.RoleGroup, "Bank Accounts"),
		classified(domain.RoleData, "Checking", "100.0000004"),
		totalFor("Bank Accounts", "100.0000009"),
	}

	result, err := newBuilder().Build(context.Background(), rows, singlePeriod())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(result.Mismatches) != 0 {
		t.Errorf("sub-tolerance difference should not be a mismatch, got %d", len(result.Mismatches))
	}
}

func TestBuildOrphanTotalIgnored(t *testing.T) {
	rows := []domain.ClassifiedRow{
		classified(domain.RoleData, "Checking", "100.00"),
		totalFor("Bank Accounts", "100.00"), // nothing open by that name
	}

	result, err := newBuilder().Build(context.Background(), rows, singlePeriod())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1 for orphan total", len(result.Warnings))
	}
	if len(result.Roots) != 1 || result.Roots[0].Name != "Checking" {
		t.Errorf("orphan total must not disturb the tree")
	}
}

func TestBuildForceCloseInnerFrames(t *testing.T) {
	// The inner group never sees its own total; the outer total closes
	// both, and the inner one takes its computed sum.
	rows := []domain.ClassifiedRow{
		classified(domain.RoleGroup, "Current Assets"),
		classified(domain.RoleGroup, "Bank Accounts"),
		classified(domain.RoleData, "Checking", "100.00"),
		totalFor("Current Assets", "100.00"),
	}

	result, err := newBuilder().Build(context.Background(), rows, singlePeriod())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	outer := result.Roots[0]
	inner := outer.Children[0]
	if inner.Name != "Bank Accounts" {
		t.Fatalf("inner = %s, want Bank Accounts", inner.Name)
	}
	if got := value(t, inner, "2025-01"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("inner computed total = %s, want 100", got)
	}
	if got := value(t, outer, "2025-01"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("outer declared total = %s, want 100", got)
	}
}

func TestBuildSiblingSections(t *testing.T) {
	// Cash flow style: sections have no "Total for X" rows; a new
	// section ends the previous one instead of nesting inside it.
	rows := []domain.ClassifiedRow{
		classified(domain.RoleSection, "OPERATING ACTIVITIES"),
		classified(domain.RoleData, "Depreciation", "100.00"),
		classified(domain.RoleSection, "INVESTING ACTIVITIES"),
		classified(domain.RoleData, "Equipment", "-40.00"),
	}

	result, err := newBuilder().Build(context.Background(), rows, singlePeriod())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(result.Roots) != 2 {
		t.Fatalf("got %d roots, want 2 sibling sections", len(result.Roots))
	}
	operating, investing := result.Roots[0], result.Roots[1]
	if operating.Name != "OPERATING ACTIVITIES" || investing.Name != "INVESTING ACTIVITIES" {
		t.Fatalf("roots = %s, %s", operating.Name, investing.Name)
	}
	if len(operating.Children) != 1 {
		t.Errorf("operating has %d children, want 1 (investing must not nest)", len(operating.Children))
	}
	if got := value(t, operating, "2025-01"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("operating total = %s, want 100", got)
	}
	if got := value(t, investing, "2025-01"); !got.Equal(decimal.NewFromInt(-40)) {
		t.Errorf("investing total = %s, want -40", got)
	}
}

func TestBuildCalculatedClosesSection(t *testing.T) {
	// "Net cash provided by operating activities" ends its section and
	// carries the declared total; it is not also a child, so the
	// computed sum counts only the data rows.
	rows := []domain.ClassifiedRow{
		classified(domain.RoleSection, "OPERATING ACTIVITIES"),
		classified(domain.RoleData, "Depreciation", "100.00"),
		classified(domain.RoleCalculated, "Net cash provided by operating activities", "90.00"),
	}

	result, err := newBuilder().Build(context.Background(), rows, singlePeriod())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(result.Roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(result.Roots))
	}
	section := result.Roots[0]
	if len(section.Children) != 1 {
		t.Fatalf("section has %d children, want 1 (summary row is not a child)", len(section.Children))
	}
	if got := value(t, section, "2025-01"); !got.Equal(decimal.NewFromInt(90)) {
		t.Errorf("section total = %s, want declared 90", got)
	}
	if section.SummaryLabel != "Net cash provided by operating activities" {
		t.Errorf("SummaryLabel = %q", section.SummaryLabel)
	}
	if len(result.Mismatches) != 1 {
		t.Fatalf("got %d mismatches, want 1 (computed 100 vs declared 90)", len(result.Mismatches))
	}
}

func TestBuildCalculatedLeafInsideSection(t *testing.T) {
	// A calculated row that names no open section stays a leaf.
	rows := []domain.ClassifiedRow{
		classified(domain.RoleSection, "OPERATING ACTIVITIES"),
		classified(domain.RoleCalculated, "Net Income", "100.00"),
	}

	result, err := newBuilder().Build(context.Background(), rows, singlePeriod())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	section := result.Roots[0]
	if len(section.Children) != 1 || section.Children[0].Name != "Net Income" {
		t.Fatalf("section children = %v", section.Children)
	}
	if got := value(t, section, "2025-01"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("section total = %s, want 100", got)
	}
}

func TestBuildGrandTotal(t *testing.T) {
	rows := []domain.ClassifiedRow{
		classified(domain.RoleSection, "Income"),
		classified(domain.RoleData, "Sales", "900.00"),
		classified(domain.RoleGrandTotal, "TOTAL", "900.00"),
	}

	result, err := newBuilder().Build(context.Background(), rows, singlePeriod())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(result.Roots) != 2 {
		t.Fatalf("got %d roots, want section + grand total", len(result.Roots))
	}
	grand := result.Roots[1]
	if grand.Kind != domain.NodeCalculated || grand.GroupTag != "GrandTotal" {
		t.Errorf("grand total node = %s/%s, want calculated/GrandTotal", grand.Kind, grand.GroupTag)
	}
	if got := value(t, grand, "2025-01"); !got.Equal(decimal.NewFromInt(900)) {
		t.Errorf("grand total = %s, want 900", got)
	}
}

func TestBuildEmptyVersusZero(t *testing.T) {
	periods := []period.Period{
		{Key: "2025-01", Columns: []int{0}},
		{Key: "2025-02", Columns: []int{1}},
	}
	rows := []domain.ClassifiedRow{
		classified(domain.RoleData, "Checking", "0.00", ""),
	}

	result, err := newBuilder().Build(context.Background(), rows, periods)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	leaf := result.Roots[0]
	if _, ok := leaf.Value("2025-01"); !ok {
		t.Error("explicit zero must be present")
	}
	if _, ok := leaf.Value("2025-02"); ok {
		t.Error("empty cell must stay absent")
	}
}

func TestBuildPairedDebitCredit(t *testing.T) {
	periods := []period.Period{{Key: "2025-01", Columns: []int{0, 1}}}
	rows := []domain.ClassifiedRow{
		classified(domain.RoleData, "Checking", "500.00", "125.00"),
	}

	result, err := newBuilder().Build(context.Background(), rows, periods)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := value(t, result.Roots[0], "2025-01"); !got.Equal(decimal.NewFromInt(375)) {
		t.Errorf("paired value = %s, want debit minus credit = 375", got)
	}
}

func TestBuildCaseInsensitiveTotalMatch(t *testing.T) {
	rows := []domain.ClassifiedRow{
		classified(domain.RoleGroup, "Bank Accounts"),
		classified(domain.RoleData, "Checking", "100.00"),
		totalFor("BANK ACCOUNTS", "100.00"),
	}

	result, err := newBuilder().Build(context.Background(), rows, singlePeriod())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("case difference should still match, got warnings: %v", result.Warnings)
	}
}

func TestBuildTreesSharePeriods(t *testing.T) {
	periods := []period.Period{
		{Key: "2025-01", Columns: []int{0}},
		{Key: "2025-02", Columns: []int{1}},
	}
	rows := []domain.ClassifiedRow{
		classified(domain.RoleData, "Checking", "10.00", "20.00"),
	}

	result, err := newBuilder().Build(context.Background(), rows, periods)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(result.Trees) != 2 {
		t.Fatalf("got %d trees, want one per period", len(result.Trees))
	}
	if result.Trees[0].Period.Key != "2025-01" || result.Trees[1].Period.Key != "2025-02" {
		t.Errorf("tree periods = %s, %s", result.Trees[0].Period.Key, result.Trees[1].Period.Key)
	}
	// Trees share the same node pointers.
	if result.Trees[0].Roots[0] != result.Trees[1].Roots[0] {
		t.Error("trees should share node pointers")
	}
}

func TestBuildRequiresPeriods(t *testing.T) {
	_, err := newBuilder().Build(context.Background(), nil, nil)
	if err == nil {
		t.Error("Build() without periods should fail")
	}
}

func TestBuildNoiseDropped(t *testing.T) {
	rows := []domain.ClassifiedRow{
		classified(domain.RoleNoise, "Accrual Basis"),
		classified(domain.RoleData, "Checking", "100.00"),
	}
	result, err := newBuilder().Build(context.Background(), rows, singlePeriod())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(result.Roots) != 1 {
		t.Errorf("got %d roots, want 1 (noise dropped)", len(result.Roots))
	}
}

func TestBuildAssignsAccountIDs(t *testing.T) {
	rows := []domain.ClassifiedRow{
		classified(domain.RoleData, "Checking", "100.00"),
		classified(domain.RoleData, "Savings", "50.00"),
		classified(domain.RoleData, "Checking", "25.00"), // same name again
	}
	result, err := newBuilder().Build(context.Background(), rows, singlePeriod())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if result.Roots[0].AccountID == "" || result.Roots[1].AccountID == "" {
		t.Fatal("data nodes should carry account ids")
	}
	if result.Roots[0].AccountID == result.Roots[1].AccountID {
		t.Error("different names must get different ids")
	}
	if result.Roots[0].AccountID != result.Roots[2].AccountID {
		t.Error("same name must get the same id within a run")
	}
}
