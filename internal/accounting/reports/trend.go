package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/ar"
)

// PLTrendPoint conveys the P&L movement of one trend bucket.
type PLTrendPoint struct {
	Period            string
	Range             accounting.DateRange
	Revenue           decimal.Decimal
	COGS              decimal.Decimal
	GrossProfit       decimal.Decimal
	OperatingExpenses decimal.Decimal
	NetIncome         decimal.Decimal
	GrossMargin       decimal.Decimal
}

// CashFlowTrendPoint captures the activity totals of one trend bucket with
// the running cash balance carried forward.
type CashFlowTrendPoint struct {
	Period          string
	Range           accounting.DateRange
	Operating       decimal.Decimal
	Investing       decimal.Decimal
	Financing       decimal.Decimal
	NetChangeInCash decimal.Decimal
	EndingCash      decimal.Decimal
}

// BuildProfitAndLossTrend recomputes the P&L for each daily, weekly or
// monthly sub-window of rng. It stops early and returns ctx.Err() when the
// context is cancelled.
func BuildProfitAndLossTrend(ctx context.Context, ledger *Ledger, invoices []ar.Invoice, rng accounting.DateRange, g accounting.Granularity) ([]PLTrendPoint, error) {
	buckets, err := rng.Split(g)
	if err != nil {
		return nil, err
	}
	points := make([]PLTrendPoint, 0, len(buckets))
	for _, bucket := range buckets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pl := BuildProfitAndLoss(ledger, invoices, bucket)
		points = append(points, PLTrendPoint{
			Period:            g.PeriodLabel(bucket),
			Range:             bucket,
			Revenue:           pl.Revenue.Total,
			COGS:              pl.CostOfGoodsSold.Total,
			GrossProfit:       pl.GrossProfit,
			OperatingExpenses: pl.TotalOperatingExpenses,
			NetIncome:         pl.NetIncome,
			GrossMargin:       pl.GrossMargin,
		})
	}
	return points, nil
}

// BuildCashFlowTrend recomputes the three activity totals per sub-window of
// rng, starting the running balance from cash at the day before rng.From.
func BuildCashFlowTrend(ctx context.Context, ledger *Ledger, invoices []ar.Invoice, rng accounting.DateRange, g accounting.Granularity) ([]CashFlowTrendPoint, error) {
	buckets, err := rng.Split(g)
	if err != nil {
		return nil, err
	}
	points := make([]CashFlowTrendPoint, 0, len(buckets))
	running := decimal.Zero
	for i, bucket := range buckets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cf := BuildCashFlow(ledger, invoices, bucket)
		if i == 0 {
			running = cf.BeginningCash
		}
		running = running.Add(cf.NetChangeInCash)
		points = append(points, CashFlowTrendPoint{
			Period:          g.PeriodLabel(bucket),
			Range:           bucket,
			Operating:       cf.NetCashFromOperating,
			Investing:       cf.NetCashFromInvesting,
			Financing:       cf.NetCashFromFinancing,
			NetChangeInCash: cf.NetChangeInCash,
			EndingCash:      running,
		})
	}
	return points, nil
}
