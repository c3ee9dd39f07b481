package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finstat/internal/accounting"
)

// TrialBalanceRow represents a row inside a trial balance section.
type TrialBalanceRow struct {
	AccountID int64
	Code      string
	Name      string
	SubType   accounting.AccountSubType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// TrialBalanceSection aggregates the rows of one account type.
type TrialBalanceSection struct {
	Type        accounting.AccountType
	Label       string
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// TrialBalance is the final structure handed to renderers. An out-of-balance
// ledger is reported through IsBalanced and Difference.
type TrialBalance struct {
	AsOf        time.Time
	Sections    []TrialBalanceSection
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Difference  decimal.Decimal
	IsBalanced  bool
}

var sectionLabels = map[accounting.AccountType]string{
	accounting.AccountTypeAsset:     "Assets",
	accounting.AccountTypeLiability: "Liabilities",
	accounting.AccountTypeEquity:    "Equity",
	accounting.AccountTypeRevenue:   "Revenue",
	accounting.AccountTypeExpense:   "Expenses",
}

// BuildTrialBalance lists every active account with a non-zero balance at asOf.
func BuildTrialBalance(ledger *Ledger, asOf time.Time) TrialBalance {
	asOf = accounting.Day(asOf)
	groups := make(map[accounting.AccountType]*TrialBalanceSection)
	for _, acc := range ledger.Accounts() {
		if !acc.IsActive {
			continue
		}
		balance := ledger.Balance(acc, asOf)
		if balance.IsZero() {
			continue
		}
		debit, credit := Columns(acc, balance)
		grp, ok := groups[acc.Type]
		if !ok {
			grp = &TrialBalanceSection{
				Type:        acc.Type,
				Label:       sectionLabels[acc.Type],
				TotalDebit:  decimal.Zero,
				TotalCredit: decimal.Zero,
			}
			groups[acc.Type] = grp
		}
		grp.Rows = append(grp.Rows, TrialBalanceRow{
			AccountID: acc.ID,
			Code:      acc.Code,
			Name:      acc.Name,
			SubType:   acc.SubType,
			Debit:     debit,
			Credit:    credit,
		})
		grp.TotalDebit = grp.TotalDebit.Add(debit)
		grp.TotalCredit = grp.TotalCredit.Add(credit)
	}

	result := TrialBalance{AsOf: asOf, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, t := range accounting.AccountTypes {
		grp, ok := groups[t]
		if !ok {
			continue
		}
		result.Sections = append(result.Sections, *grp)
		result.TotalDebit = result.TotalDebit.Add(grp.TotalDebit)
		result.TotalCredit = result.TotalCredit.Add(grp.TotalCredit)
	}
	result.Difference = result.TotalDebit.Sub(result.TotalCredit)
	result.IsBalanced = result.Difference.IsZero()
	return result
}

// Row finds a row by account code.
func (tb TrialBalance) Row(code string) (TrialBalanceRow, bool) {
	for _, sec := range tb.Sections {
		for _, row := range sec.Rows {
			if row.Code == code {
				return row, true
			}
		}
	}
	return TrialBalanceRow{}, false
}
