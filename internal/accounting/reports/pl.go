package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/ar"
)

// Revenue sources reported on the P&L.
const (
	RevenueSourceLedger   = "ledger"
	RevenueSourceInvoices = "invoices"
)

// SalesRevenueLabel names the synthetic line built from invoices.
const SalesRevenueLabel = "Sales Revenue"

// ProfitAndLossLine represents a revenue or expense account summary.
type ProfitAndLossLine struct {
	AccountID int64
	Code      string
	Name      string
	Amount    decimal.Decimal
	Synthetic bool
}

// ProfitAndLossSection groups lines by nature.
type ProfitAndLossSection struct {
	Label string
	Lines []ProfitAndLossLine
	Total decimal.Decimal
}

func newPLSection(label string) ProfitAndLossSection {
	return ProfitAndLossSection{Label: label, Total: decimal.Zero}
}

func (s *ProfitAndLossSection) add(line ProfitAndLossLine) {
	s.Lines = append(s.Lines, line)
	s.Total = s.Total.Add(line.Amount)
}

// ProfitAndLoss contains the structured output for the report.
type ProfitAndLoss struct {
	Range                  accounting.DateRange
	Revenue                ProfitAndLossSection
	CostOfGoodsSold        ProfitAndLossSection
	GrossProfit            decimal.Decimal
	GrossMargin            decimal.Decimal
	OperatingExpenses      []ProfitAndLossSection
	TotalOperatingExpenses decimal.Decimal
	OperatingIncome        decimal.Decimal
	OperatingMargin        decimal.Decimal
	OtherIncome            ProfitAndLossSection
	OtherExpenses          ProfitAndLossSection
	NetIncome              decimal.Decimal
	NetMargin              decimal.Decimal
	RevenueSource          string
}

// BuildProfitAndLoss aggregates period movements of revenue and expense
// accounts. When the ledger shows no revenue activity in range, invoices
// dated in range stand in for recognised revenue.
func BuildProfitAndLoss(ledger *Ledger, invoices []ar.Invoice, rng accounting.DateRange) ProfitAndLoss {
	rng = accounting.NewDateRange(rng.From, rng.To)
	pl := ProfitAndLoss{
		Range:           rng,
		Revenue:         newPLSection("Revenue"),
		CostOfGoodsSold: newPLSection("Cost of Goods Sold"),
		OtherIncome:     newPLSection("Other Income"),
		OtherExpenses:   newPLSection("Other Expenses"),
		RevenueSource:   RevenueSourceLedger,
	}

	categories := make(map[string]*ProfitAndLossSection)
	revenueActivity := false
	for _, acc := range ledger.Accounts() {
		if acc.Type != accounting.AccountTypeRevenue && acc.Type != accounting.AccountTypeExpense {
			continue
		}
		section := accounting.SectionOf(acc.Type, acc.SubType)
		if section == accounting.SectionRevenue && ledger.HasActivity(acc, rng) {
			revenueActivity = true
		}
		amount := ledger.PeriodMovement(acc, rng)
		if amount.IsZero() {
			continue
		}
		line := ProfitAndLossLine{AccountID: acc.ID, Code: acc.Code, Name: acc.Name, Amount: amount}
		switch section {
		case accounting.SectionRevenue:
			pl.Revenue.add(line)
		case accounting.SectionOtherIncome:
			pl.OtherIncome.add(line)
		case accounting.SectionCostOfSales:
			pl.CostOfGoodsSold.add(line)
		case accounting.SectionOtherExpenses:
			pl.OtherExpenses.add(line)
		default:
			name := accounting.ExpenseCategoryOf(acc.SubType)
			cat, ok := categories[name]
			if !ok {
				sec := newPLSection(name)
				cat = &sec
				categories[name] = cat
			}
			cat.add(line)
		}
	}

	if !revenueActivity {
		if total, ok := invoicedRevenue(invoices, rng); ok {
			pl.Revenue.add(ProfitAndLossLine{Name: SalesRevenueLabel, Amount: total, Synthetic: true})
			pl.RevenueSource = RevenueSourceInvoices
		}
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	pl.TotalOperatingExpenses = decimal.Zero
	for _, name := range names {
		pl.OperatingExpenses = append(pl.OperatingExpenses, *categories[name])
		pl.TotalOperatingExpenses = pl.TotalOperatingExpenses.Add(categories[name].Total)
	}

	pl.GrossProfit = pl.Revenue.Total.Sub(pl.CostOfGoodsSold.Total)
	pl.GrossMargin = percentOf(pl.GrossProfit, pl.Revenue.Total)
	pl.OperatingIncome = pl.GrossProfit.Sub(pl.TotalOperatingExpenses)
	pl.OperatingMargin = percentOf(pl.OperatingIncome, pl.Revenue.Total)
	pl.NetIncome = pl.OperatingIncome.Add(pl.OtherIncome.Total).Sub(pl.OtherExpenses.Total)
	pl.NetMargin = percentOf(pl.NetIncome, pl.Revenue.Total)
	return pl
}

// OperatingExpenseCategory returns a category section by name.
func (pl ProfitAndLoss) OperatingExpenseCategory(name string) (ProfitAndLossSection, bool) {
	for _, sec := range pl.OperatingExpenses {
		if sec.Label == name {
			return sec, true
		}
	}
	return ProfitAndLossSection{}, false
}

func invoicedRevenue(invoices []ar.Invoice, rng accounting.DateRange) (decimal.Decimal, bool) {
	total := decimal.Zero
	found := false
	for _, inv := range invoices {
		if inv.Excluded() || !rng.Contains(inv.InvoiceDate) {
			continue
		}
		total = total.Add(inv.Total)
		found = true
	}
	return total, found
}
