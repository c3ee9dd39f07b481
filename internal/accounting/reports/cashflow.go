package reports

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/ar"
)

// CashFlowItem is a single reconciling amount on the statement.
type CashFlowItem struct {
	AccountID int64
	Code      string
	Label     string
	Amount    decimal.Decimal
}

// CashFlowMetrics are derived coverage ratios; each is zero on a zero denominator.
type CashFlowMetrics struct {
	OperatingCashFlowRatio decimal.Decimal
	FreeCashFlow           decimal.Decimal
	CashFlowToDebtRatio    decimal.Decimal
}

// CashFlowStatement is the indirect-method statement for a date range.
// Reconciled reports whether the cash accounts moved by NetChangeInCash.
type CashFlowStatement struct {
	Range                 accounting.DateRange
	NetIncome             decimal.Decimal
	Adjustments           []CashFlowItem
	WorkingCapitalChanges []CashFlowItem
	NetCashFromOperating  decimal.Decimal
	InvestingActivities   []CashFlowItem
	NetCashFromInvesting  decimal.Decimal
	FinancingActivities   []CashFlowItem
	NetCashFromFinancing  decimal.Decimal
	NetChangeInCash       decimal.Decimal
	BeginningCash         decimal.Decimal
	EndingCash            decimal.Decimal
	Discrepancy           decimal.Decimal
	Reconciled            bool
	RevenueSource         string
	Metrics               CashFlowMetrics
}

// BuildCashFlow derives operating cash from the same net income the P&L
// reports for rng, then walks balance changes of every non-cash account.
func BuildCashFlow(ledger *Ledger, invoices []ar.Invoice, rng accounting.DateRange) CashFlowStatement {
	rng = accounting.NewDateRange(rng.From, rng.To)
	pl := BuildProfitAndLoss(ledger, invoices, rng)
	opening := rng.From.AddDate(0, 0, -1)

	cf := CashFlowStatement{
		Range:         rng,
		NetIncome:     pl.NetIncome,
		BeginningCash: decimal.Zero,
		EndingCash:    decimal.Zero,
		RevenueSource: pl.RevenueSource,
	}

	adjustments, workingCapital := decimal.Zero, decimal.Zero
	investing, financing, capex := decimal.Zero, decimal.Zero, decimal.Zero
	currentLiabilities := decimal.Zero

	for _, acc := range ledger.Accounts() {
		begin := ledger.Balance(acc, opening)
		end := ledger.Balance(acc, rng.To)
		delta := end.Sub(begin)
		if accounting.SectionOf(acc.Type, acc.SubType) == accounting.SectionCurrentLiabilities {
			currentLiabilities = currentLiabilities.Add(end)
		}

		item := CashFlowItem{AccountID: acc.ID, Code: acc.Code, Label: acc.Name}
		switch accounting.CashFlowRoleOf(acc.Type, acc.SubType) {
		case accounting.CashFlowCash:
			cf.BeginningCash = cf.BeginningCash.Add(begin)
			cf.EndingCash = cf.EndingCash.Add(end)
		case accounting.CashFlowIncome:
			if acc.Type == accounting.AccountTypeExpense && acc.SubType == accounting.SubTypeDepreciation {
				item.Amount = ledger.PeriodMovement(acc, rng)
				if !item.Amount.IsZero() {
					cf.Adjustments = append(cf.Adjustments, item)
					adjustments = adjustments.Add(item.Amount)
				}
			}
		case accounting.CashFlowWorkingCapitalAsset:
			if !delta.IsZero() {
				item.Amount = delta.Neg()
				cf.WorkingCapitalChanges = append(cf.WorkingCapitalChanges, item)
				workingCapital = workingCapital.Add(item.Amount)
			}
		case accounting.CashFlowWorkingCapitalLiability:
			if !delta.IsZero() {
				item.Amount = delta
				cf.WorkingCapitalChanges = append(cf.WorkingCapitalChanges, item)
				workingCapital = workingCapital.Add(item.Amount)
			}
		case accounting.CashFlowInvesting:
			if !delta.IsZero() {
				item.Amount = delta.Neg()
				cf.InvestingActivities = append(cf.InvestingActivities, item)
				investing = investing.Add(item.Amount)
				if item.Amount.IsNegative() {
					capex = capex.Add(item.Amount)
				}
			}
		case accounting.CashFlowFinancingDebt, accounting.CashFlowFinancingEquity:
			if !delta.IsZero() {
				item.Amount = delta
				cf.FinancingActivities = append(cf.FinancingActivities, item)
				financing = financing.Add(item.Amount)
			}
		case accounting.CashFlowDrawings:
			if !delta.IsZero() {
				item.Amount = delta.Abs().Neg()
				cf.FinancingActivities = append(cf.FinancingActivities, item)
				financing = financing.Add(item.Amount)
			}
		}
	}

	cf.NetCashFromOperating = cf.NetIncome.Add(adjustments).Add(workingCapital)
	cf.NetCashFromInvesting = investing
	cf.NetCashFromFinancing = financing
	cf.NetChangeInCash = cf.NetCashFromOperating.Add(investing).Add(financing)
	cf.Discrepancy = cf.EndingCash.Sub(cf.BeginningCash).Sub(cf.NetChangeInCash)
	cf.Reconciled = cf.Discrepancy.Abs().LessThanOrEqual(reconcileTolerance)
	cf.Metrics = CashFlowMetrics{
		OperatingCashFlowRatio: ratio(cf.NetCashFromOperating, currentLiabilities),
		FreeCashFlow:           cf.NetCashFromOperating.Add(capex),
		CashFlowToDebtRatio:    ratio(cf.NetCashFromOperating, TotalDebt(ledger, rng.To)),
	}
	return cf
}
