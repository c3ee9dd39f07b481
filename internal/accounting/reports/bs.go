package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finstat/internal/accounting"
)

// RetainedEarningsLabel names the synthetic equity line carrying net income to date.
const RetainedEarningsLabel = "Retained Earnings (current period)"

// BalanceSheetLine summarises an account inside a balance sheet section.
type BalanceSheetLine struct {
	AccountID int64
	Code      string
	Name      string
	SubType   accounting.AccountSubType
	Balance   decimal.Decimal
	Synthetic bool
}

// BalanceSheetSection contains the lines and total for a classification.
type BalanceSheetSection struct {
	Label string
	Lines []BalanceSheetLine
	Total decimal.Decimal
}

// BalanceSheetRatios holds liquidity and leverage ratios. Each evaluates to
// zero when its denominator is zero.
type BalanceSheetRatios struct {
	CurrentRatio   decimal.Decimal
	QuickRatio     decimal.Decimal
	DebtToEquity   decimal.Decimal
	WorkingCapital decimal.Decimal
}

// BalanceSheet is the structured response for the balance sheet report.
type BalanceSheet struct {
	AsOf                      time.Time
	CurrentAssets             BalanceSheetSection
	NonCurrentAssets          BalanceSheetSection
	CurrentLiabilities        BalanceSheetSection
	NonCurrentLiabilities     BalanceSheetSection
	Equity                    BalanceSheetSection
	TotalAssets               decimal.Decimal
	TotalLiabilities          decimal.Decimal
	TotalEquity               decimal.Decimal
	TotalLiabilitiesAndEquity decimal.Decimal
	Inventory                 decimal.Decimal
	NetIncomeToDate           decimal.Decimal
	Difference                decimal.Decimal
	IsBalanced                bool
	Ratios                    BalanceSheetRatios
}

func newSection(label string) BalanceSheetSection {
	return BalanceSheetSection{Label: label, Total: decimal.Zero}
}

func (s *BalanceSheetSection) add(line BalanceSheetLine) {
	s.Lines = append(s.Lines, line)
	s.Total = s.Total.Add(line.Balance)
}

// BuildBalanceSheet classifies balances at asOf into current and non-current
// sections. Cumulative net income is recomputed and folded into equity since
// the ledger is never closed.
func BuildBalanceSheet(ledger *Ledger, asOf time.Time) BalanceSheet {
	asOf = accounting.Day(asOf)
	bs := BalanceSheet{
		AsOf:                  asOf,
		CurrentAssets:         newSection("Current Assets"),
		NonCurrentAssets:      newSection("Non-Current Assets"),
		CurrentLiabilities:    newSection("Current Liabilities"),
		NonCurrentLiabilities: newSection("Non-Current Liabilities"),
		Equity:                newSection("Equity"),
		Inventory:             decimal.Zero,
		NetIncomeToDate:       decimal.Zero,
	}

	retainedIdx := -1
	for _, acc := range ledger.Accounts() {
		balance := ledger.Balance(acc, asOf)
		switch acc.Type {
		case accounting.AccountTypeRevenue:
			bs.NetIncomeToDate = bs.NetIncomeToDate.Add(balance)
			continue
		case accounting.AccountTypeExpense:
			bs.NetIncomeToDate = bs.NetIncomeToDate.Sub(balance)
			continue
		}
		isRetained := acc.IsActive && acc.Type == accounting.AccountTypeEquity &&
			acc.SubType == accounting.SubTypeRetainedEarnings && retainedIdx < 0
		if balance.IsZero() && !isRetained {
			continue
		}
		line := BalanceSheetLine{
			AccountID: acc.ID,
			Code:      acc.Code,
			Name:      acc.Name,
			SubType:   acc.SubType,
			Balance:   balance,
		}
		switch accounting.SectionOf(acc.Type, acc.SubType) {
		case accounting.SectionCurrentAssets:
			bs.CurrentAssets.add(line)
			if acc.SubType == accounting.SubTypeInventory {
				bs.Inventory = bs.Inventory.Add(balance)
			}
		case accounting.SectionNonCurrentAssets:
			bs.NonCurrentAssets.add(line)
		case accounting.SectionCurrentLiabilities:
			bs.CurrentLiabilities.add(line)
		case accounting.SectionNonCurrentLiabilities:
			bs.NonCurrentLiabilities.add(line)
		case accounting.SectionEquity:
			if isRetained {
				retainedIdx = len(bs.Equity.Lines)
			}
			bs.Equity.add(line)
		}
	}

	if retainedIdx >= 0 {
		bs.Equity.Lines[retainedIdx].Balance = bs.Equity.Lines[retainedIdx].Balance.Add(bs.NetIncomeToDate)
		bs.Equity.Total = bs.Equity.Total.Add(bs.NetIncomeToDate)
	} else if !bs.NetIncomeToDate.IsZero() {
		bs.Equity.add(BalanceSheetLine{Name: RetainedEarningsLabel, Balance: bs.NetIncomeToDate, Synthetic: true})
	}

	bs.TotalAssets = bs.CurrentAssets.Total.Add(bs.NonCurrentAssets.Total)
	bs.TotalLiabilities = bs.CurrentLiabilities.Total.Add(bs.NonCurrentLiabilities.Total)
	bs.TotalEquity = bs.Equity.Total
	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities.Add(bs.TotalEquity)
	bs.Difference = bs.TotalAssets.Sub(bs.TotalLiabilitiesAndEquity)
	bs.IsBalanced = bs.Difference.IsZero()

	ca, cl := bs.CurrentAssets.Total, bs.CurrentLiabilities.Total
	bs.Ratios = BalanceSheetRatios{
		CurrentRatio:   ratio(ca, cl),
		QuickRatio:     ratio(ca.Sub(bs.Inventory), cl),
		DebtToEquity:   ratio(bs.TotalLiabilities, bs.TotalEquity),
		WorkingCapital: ca.Sub(cl),
	}
	return bs
}

// TotalDebt sums interest-bearing liability balances at asOf.
func TotalDebt(ledger *Ledger, asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, acc := range ledger.Accounts() {
		if acc.Type == accounting.AccountTypeLiability && accounting.IsDebt(acc.SubType) {
			total = total.Add(ledger.Balance(acc, asOf))
		}
	}
	return total
}
