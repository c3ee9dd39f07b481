package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/ar"
)

// Change compares one figure across two periods.
type Change struct {
	Label         string
	Code          string
	Current       decimal.Decimal
	Prior         decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
}

func newChange(label, code string, current, prior decimal.Decimal) Change {
	return Change{
		Label:         label,
		Code:          code,
		Current:       current,
		Prior:         prior,
		Change:        current.Sub(prior),
		ChangePercent: percentChange(current, prior),
	}
}

// TrialBalanceComparison sets a trial balance against the same date a year earlier.
type TrialBalanceComparison struct {
	Current  TrialBalance
	Prior    TrialBalance
	Accounts []Change
	Totals   []Change
}

// BuildTrialBalanceComparison recomputes the trial balance at asOf minus one year.
func BuildTrialBalanceComparison(ledger *Ledger, asOf time.Time) TrialBalanceComparison {
	asOf = accounting.Day(asOf)
	priorAsOf := asOf.AddDate(-1, 0, 0)
	cmp := TrialBalanceComparison{
		Current: BuildTrialBalance(ledger, asOf),
		Prior:   BuildTrialBalance(ledger, priorAsOf),
	}
	for _, acc := range ledger.Accounts() {
		if !acc.IsActive {
			continue
		}
		current := ledger.Balance(acc, asOf)
		prior := ledger.Balance(acc, priorAsOf)
		if current.IsZero() && prior.IsZero() {
			continue
		}
		cmp.Accounts = append(cmp.Accounts, newChange(acc.Name, acc.Code, current, prior))
	}
	cmp.Totals = []Change{
		newChange("Total Debit", "", cmp.Current.TotalDebit, cmp.Prior.TotalDebit),
		newChange("Total Credit", "", cmp.Current.TotalCredit, cmp.Prior.TotalCredit),
	}
	return cmp
}

// BalanceSheetComparison sets a balance sheet against the same date a year earlier.
type BalanceSheetComparison struct {
	Current BalanceSheet
	Prior   BalanceSheet
	Changes []Change
}

// BuildBalanceSheetComparison recomputes the balance sheet at asOf minus one year.
func BuildBalanceSheetComparison(ledger *Ledger, asOf time.Time) BalanceSheetComparison {
	asOf = accounting.Day(asOf)
	cur := BuildBalanceSheet(ledger, asOf)
	prior := BuildBalanceSheet(ledger, asOf.AddDate(-1, 0, 0))
	return BalanceSheetComparison{
		Current: cur,
		Prior:   prior,
		Changes: []Change{
			newChange(cur.CurrentAssets.Label, "", cur.CurrentAssets.Total, prior.CurrentAssets.Total),
			newChange(cur.NonCurrentAssets.Label, "", cur.NonCurrentAssets.Total, prior.NonCurrentAssets.Total),
			newChange("Total Assets", "", cur.TotalAssets, prior.TotalAssets),
			newChange(cur.CurrentLiabilities.Label, "", cur.CurrentLiabilities.Total, prior.CurrentLiabilities.Total),
			newChange(cur.NonCurrentLiabilities.Label, "", cur.NonCurrentLiabilities.Total, prior.NonCurrentLiabilities.Total),
			newChange("Total Liabilities", "", cur.TotalLiabilities, prior.TotalLiabilities),
			newChange("Total Equity", "", cur.TotalEquity, prior.TotalEquity),
			newChange("Working Capital", "", cur.Ratios.WorkingCapital, prior.Ratios.WorkingCapital),
		},
	}
}

// ProfitAndLossComparison sets a P&L against the immediately preceding period
// of equal length and against the same range a year earlier.
type ProfitAndLossComparison struct {
	Current     ProfitAndLoss
	Prior       ProfitAndLoss
	PriorYear   ProfitAndLoss
	Changes     []Change
	YearChanges []Change
}

// BuildProfitAndLossComparison recomputes the P&L for rng.Preceding() and
// for rng shifted back one year.
func BuildProfitAndLossComparison(ledger *Ledger, invoices []ar.Invoice, rng accounting.DateRange) ProfitAndLossComparison {
	rng = accounting.NewDateRange(rng.From, rng.To)
	cur := BuildProfitAndLoss(ledger, invoices, rng)
	prior := BuildProfitAndLoss(ledger, invoices, rng.Preceding())
	lastYear := BuildProfitAndLoss(ledger, invoices, rng.ShiftYears(-1))
	return ProfitAndLossComparison{
		Current:     cur,
		Prior:       prior,
		PriorYear:   lastYear,
		Changes:     profitAndLossChanges(cur, prior),
		YearChanges: profitAndLossChanges(cur, lastYear),
	}
}

func profitAndLossChanges(cur, prior ProfitAndLoss) []Change {
	return []Change{
		newChange("Revenue", "", cur.Revenue.Total, prior.Revenue.Total),
		newChange("Cost of Goods Sold", "", cur.CostOfGoodsSold.Total, prior.CostOfGoodsSold.Total),
		newChange("Gross Profit", "", cur.GrossProfit, prior.GrossProfit),
		newChange("Operating Expenses", "", cur.TotalOperatingExpenses, prior.TotalOperatingExpenses),
		newChange("Operating Income", "", cur.OperatingIncome, prior.OperatingIncome),
		newChange("Net Income", "", cur.NetIncome, prior.NetIncome),
	}
}

// CashFlowComparison sets a cash-flow statement against the preceding period
// of equal length and against the same range a year earlier.
type CashFlowComparison struct {
	Current     CashFlowStatement
	Prior       CashFlowStatement
	PriorYear   CashFlowStatement
	Changes     []Change
	YearChanges []Change
}

// BuildCashFlowComparison recomputes the cash flow for rng.Preceding() and
// for rng shifted back one year.
func BuildCashFlowComparison(ledger *Ledger, invoices []ar.Invoice, rng accounting.DateRange) CashFlowComparison {
	rng = accounting.NewDateRange(rng.From, rng.To)
	cur := BuildCashFlow(ledger, invoices, rng)
	prior := BuildCashFlow(ledger, invoices, rng.Preceding())
	lastYear := BuildCashFlow(ledger, invoices, rng.ShiftYears(-1))
	return CashFlowComparison{
		Current:     cur,
		Prior:       prior,
		PriorYear:   lastYear,
		Changes:     cashFlowChanges(cur, prior),
		YearChanges: cashFlowChanges(cur, lastYear),
	}
}

func cashFlowChanges(cur, prior CashFlowStatement) []Change {
	return []Change{
		newChange("Net Income", "", cur.NetIncome, prior.NetIncome),
		newChange("Operating Activities", "", cur.NetCashFromOperating, prior.NetCashFromOperating),
		newChange("Investing Activities", "", cur.NetCashFromInvesting, prior.NetCashFromInvesting),
		newChange("Financing Activities", "", cur.NetCashFromFinancing, prior.NetCashFromFinancing),
		newChange("Net Change in Cash", "", cur.NetChangeInCash, prior.NetChangeInCash),
		newChange("Ending Cash", "", cur.EndingCash, prior.EndingCash),
		newChange("Free Cash Flow", "", cur.Metrics.FreeCashFlow, prior.Metrics.FreeCashFlow),
	}
}

// comparisonWindow spans the current range, its preceding period and the
// same range a year earlier.
func comparisonWindow(rng accounting.DateRange) accounting.DateRange {
	from := rng.Preceding().From
	if lastYear := rng.ShiftYears(-1).From; lastYear.Before(from) {
		from = lastYear
	}
	return accounting.DateRange{From: from, To: rng.To}
}
