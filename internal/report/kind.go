// Package report names the supported report kinds and infers kind and
// period hints from file names.
package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Kind identifies one supported report shape.
type Kind string

const (
	KindBalanceSheet    Kind = "balance_sheet"
	KindProfitLoss      Kind = "profit_loss"
	KindCashFlow        Kind = "cash_flow"
	KindTrialBalance    Kind = "trial_balance"
	KindGeneralLedger   Kind = "general_ledger"
	KindAgedPayables    Kind = "aged_payables"
	KindAgedReceivables Kind = "aged_receivables"
	KindUnknown         Kind = ""
)

// ReportName returns the header name downstream consumers expect for
// the kind.
func (k Kind) ReportName() string {
	switch k {
	case KindBalanceSheet:
		return "BalanceSheet"
	case KindProfitLoss:
		return "ProfitAndLoss"
	case KindCashFlow:
		return "CashFlow"
	case KindTrialBalance:
		return "TrialBalance"
	case KindGeneralLedger:
		return "GeneralLedger"
	case KindAgedPayables:
		return "AgedPayables"
	case KindAgedReceivables:
		return "AgedReceivables"
	default:
		return "Report"
	}
}

// Validate checks the kind is a known constant.
func (k Kind) Validate() error {
	switch k {
	case KindBalanceSheet, KindProfitLoss, KindCashFlow, KindTrialBalance,
		KindGeneralLedger, KindAgedPayables, KindAgedReceivables:
		return nil
	}
	return fmt.Errorf("unknown report kind %q", string(k))
}

// kindTerms maps filename fragments to kinds. Checked in order so the
// more specific fragments win over loose abbreviations.
var kindTerms = []struct {
	term string
	kind Kind
}{
	{"balance sheet", KindBalanceSheet},
	{"balancesheet", KindBalanceSheet},
	{"balance_sheet", KindBalanceSheet},
	{"trial balance", KindTrialBalance},
	{"trialbalance", KindTrialBalance},
	{"trial_balance", KindTrialBalance},
	{"profit and loss", KindProfitLoss},
	{"profit loss", KindProfitLoss},
	{"profitloss", KindProfitLoss},
	{"profit_loss", KindProfitLoss},
	{"income statement", KindProfitLoss},
	{"p&l", KindProfitLoss},
	{"cash flow", KindCashFlow},
	{"cashflow", KindCashFlow},
	{"cash_flow", KindCashFlow},
	{"statement of cash flows", KindCashFlow},
	{"aged payables", KindAgedPayables},
	{"ap aging", KindAgedPayables},
	{"aged receivables", KindAgedReceivables},
	{"ar aging", KindAgedReceivables},
	{"general ledger", KindGeneralLedger},
	{"generalledger", KindGeneralLedger},
	{"general_ledger", KindGeneralLedger},
	{"ledger", KindGeneralLedger},
}

// DetectKind infers the report kind from a file name. Returns
// KindUnknown when nothing matches; callers may then require an
// explicit kind.
func DetectKind(filename string) Kind {
	lower := strings.ToLower(filename)
	for _, entry := range kindTerms {
		if strings.Contains(lower, entry.term) {
			return entry.kind
		}
	}
	// Terse suffixes like "bs"/"tb"/"pl"/"cf"/"gl" only count as whole
	// words, otherwise "publish" would read as a P&L.
	for _, abbrev := range []struct {
		term string
		kind Kind
	}{
		{"bs", KindBalanceSheet}, {"tb", KindTrialBalance},
		{"pl", KindProfitLoss}, {"cf", KindCashFlow}, {"gl", KindGeneralLedger},
	} {
		if containsWord(lower, abbrev.term) {
			return abbrev.kind
		}
	}
	return KindUnknown
}

func containsWord(s, word string) bool {
	for _, field := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '.'
	}) {
		if field == word {
			return true
		}
	}
	return false
}

var (
	monthYearPattern = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?\s+(\d{2,4})\b`)
	yyyyMMPattern    = regexp.MustCompile(`\b(\d{4})-(\d{1,2})\b`)
	mmYYYYPattern    = regexp.MustCompile(`\b(\d{1,2})[/.](\d{4})\b`)
)

// PeriodFromFilename extracts a YYYY-MM period hint from file names
// like "April 24 balance sheet.pdf" or "2024-03 Balance Sheet.csv".
// The boolean is false when no pattern matches.
func PeriodFromFilename(filename string) (string, time.Time, bool) {
	lower := strings.ToLower(filename)

	if m := monthYearPattern.FindStringSubmatch(lower); m != nil {
		if t, err := time.Parse("Jan", strings.ToUpper(m[1][:1])+m[1][1:3]); err == nil {
			var year int
			fmt.Sscanf(m[2], "%d", &year)
			if year < 100 {
				year += 2000
			}
			return fmt.Sprintf("%04d-%02d", year, int(t.Month())),
				time.Date(year, t.Month(), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	if m := yyyyMMPattern.FindStringSubmatch(filename); m != nil {
		var year, month int
		fmt.Sscanf(m[1], "%d", &year)
		fmt.Sscanf(m[2], "%d", &month)
		if month >= 1 && month <= 12 {
			return fmt.Sprintf("%04d-%02d", year, month),
				time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	if m := mmYYYYPattern.FindStringSubmatch(filename); m != nil {
		var month, year int
		fmt.Sscanf(m[1], "%d", &month)
		fmt.Sscanf(m[2], "%d", &year)
		if month >= 1 && month <= 12 {
			return fmt.Sprintf("%04d-%02d", year, month),
				time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return "", time.Time{}, false
}
