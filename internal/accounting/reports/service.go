package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/ar"
)

// Service loads one ledger snapshot per request and hands it to the pure
// builders. It holds no mutable state.
type Service struct {
	ledger   accounting.Reader
	invoices ar.Reader
	logger   *slog.Logger
}

// NewService wires the ledger and invoice readers.
func NewService(ledger accounting.Reader, invoices ar.Reader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: ledger, invoices: invoices, logger: logger}
}

// TrialBalance builds the trial balance at asOf.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	if err := validateAsOf(asOf); err != nil {
		return TrialBalance{}, err
	}
	ledger, _, err := s.snapshot(ctx, accounting.DateRange{To: asOf}, false)
	if err != nil {
		return TrialBalance{}, err
	}
	tb := BuildTrialBalance(ledger, asOf)
	if !tb.IsBalanced {
		s.logger.Warn("trial balance out of balance",
			slog.Time("as_of", tb.AsOf),
			slog.String("difference", tb.Difference.String()))
	}
	return tb, nil
}

// TrialBalanceComparison builds the trial balance at asOf and one year earlier.
func (s *Service) TrialBalanceComparison(ctx context.Context, asOf time.Time) (TrialBalanceComparison, error) {
	if err := validateAsOf(asOf); err != nil {
		return TrialBalanceComparison{}, err
	}
	ledger, _, err := s.snapshot(ctx, accounting.DateRange{To: asOf}, false)
	if err != nil {
		return TrialBalanceComparison{}, err
	}
	return BuildTrialBalanceComparison(ledger, asOf), nil
}

// BalanceSheet builds the balance sheet at asOf.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	if err := validateAsOf(asOf); err != nil {
		return BalanceSheet{}, err
	}
	ledger, _, err := s.snapshot(ctx, accounting.DateRange{To: asOf}, false)
	if err != nil {
		return BalanceSheet{}, err
	}
	bs := BuildBalanceSheet(ledger, asOf)
	if !bs.IsBalanced {
		s.logger.Warn("balance sheet out of balance",
			slog.Time("as_of", bs.AsOf),
			slog.String("difference", bs.Difference.String()))
	}
	return bs, nil
}

// BalanceSheetComparison builds the balance sheet at asOf and one year earlier.
func (s *Service) BalanceSheetComparison(ctx context.Context, asOf time.Time) (BalanceSheetComparison, error) {
	if err := validateAsOf(asOf); err != nil {
		return BalanceSheetComparison{}, err
	}
	ledger, _, err := s.snapshot(ctx, accounting.DateRange{To: asOf}, false)
	if err != nil {
		return BalanceSheetComparison{}, err
	}
	return BuildBalanceSheetComparison(ledger, asOf), nil
}

// ProfitAndLoss builds the P&L for rng.
func (s *Service) ProfitAndLoss(ctx context.Context, rng accounting.DateRange) (ProfitAndLoss, error) {
	if err := rng.Validate(); err != nil {
		return ProfitAndLoss{}, err
	}
	ledger, invoices, err := s.snapshot(ctx, rng, true)
	if err != nil {
		return ProfitAndLoss{}, err
	}
	return BuildProfitAndLoss(ledger, invoices, rng), nil
}

// ProfitAndLossComparison builds the P&L for rng, the preceding period and
// the same range a year earlier.
func (s *Service) ProfitAndLossComparison(ctx context.Context, rng accounting.DateRange) (ProfitAndLossComparison, error) {
	if err := rng.Validate(); err != nil {
		return ProfitAndLossComparison{}, err
	}
	ledger, invoices, err := s.snapshot(ctx, comparisonWindow(rng), true)
	if err != nil {
		return ProfitAndLossComparison{}, err
	}
	return BuildProfitAndLossComparison(ledger, invoices, rng), nil
}

// ProfitAndLossTrend builds one P&L point per daily, weekly or monthly
// sub-window of rng.
func (s *Service) ProfitAndLossTrend(ctx context.Context, rng accounting.DateRange, g accounting.Granularity) ([]PLTrendPoint, error) {
	if err := validateTrend(rng, g); err != nil {
		return nil, err
	}
	ledger, invoices, err := s.snapshot(ctx, rng, true)
	if err != nil {
		return nil, err
	}
	return BuildProfitAndLossTrend(ctx, ledger, invoices, rng, g)
}

// CashFlow builds the indirect-method cash-flow statement for rng.
func (s *Service) CashFlow(ctx context.Context, rng accounting.DateRange) (CashFlowStatement, error) {
	if err := rng.Validate(); err != nil {
		return CashFlowStatement{}, err
	}
	ledger, invoices, err := s.snapshot(ctx, accounting.DateRange{To: rng.To}, true)
	if err != nil {
		return CashFlowStatement{}, err
	}
	cf := BuildCashFlow(ledger, invoices, rng)
	if !cf.Reconciled {
		s.logger.Warn("cash flow does not reconcile",
			slog.Time("from", cf.Range.From),
			slog.Time("to", cf.Range.To),
			slog.String("discrepancy", cf.Discrepancy.String()),
			slog.String("revenue_source", cf.RevenueSource))
	}
	return cf, nil
}

// CashFlowComparison builds the cash flow for rng, the preceding period and
// the same range a year earlier.
func (s *Service) CashFlowComparison(ctx context.Context, rng accounting.DateRange) (CashFlowComparison, error) {
	if err := rng.Validate(); err != nil {
		return CashFlowComparison{}, err
	}
	ledger, invoices, err := s.snapshot(ctx, accounting.DateRange{To: rng.To}, true)
	if err != nil {
		return CashFlowComparison{}, err
	}
	return BuildCashFlowComparison(ledger, invoices, rng), nil
}

// CashFlowTrend builds one cash-flow point per daily, weekly or monthly
// sub-window of rng.
func (s *Service) CashFlowTrend(ctx context.Context, rng accounting.DateRange, g accounting.Granularity) ([]CashFlowTrendPoint, error) {
	if err := validateTrend(rng, g); err != nil {
		return nil, err
	}
	ledger, invoices, err := s.snapshot(ctx, accounting.DateRange{To: rng.To}, true)
	if err != nil {
		return nil, err
	}
	return BuildCashFlowTrend(ctx, ledger, invoices, rng, g)
}

// snapshot fetches the chart, the posted lines in window and, when asked,
// the invoices dated in window. A zero window.From reaches back to the start
// of history.
func (s *Service) snapshot(ctx context.Context, window accounting.DateRange, withInvoices bool) (*Ledger, []ar.Invoice, error) {
	window = accounting.DateRange{From: window.From, To: accounting.Day(window.To)}
	if !window.From.IsZero() {
		window.From = accounting.Day(window.From)
	}

	var (
		accounts []accounting.Account
		lines    []accounting.PostedLine
		invoices []ar.Invoice
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.ledger.ListAccounts(gctx)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lines, err = s.ledger.ListPostedLines(gctx, window)
		if err != nil {
			return fmt.Errorf("list posted lines: %w", err)
		}
		return nil
	})
	if withInvoices && s.invoices != nil {
		g.Go(func() error {
			var err error
			invoices, err = s.invoices.ListInvoices(gctx, ar.InvoiceFilter{
				From:        window.From,
				To:          window.To,
				ExcludeVoid: true,
			})
			if err != nil {
				return fmt.Errorf("list invoices: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	ledger, err := NewLedger(accounts, lines)
	if err != nil {
		return nil, nil, err
	}
	return ledger, invoices, nil
}

func validateAsOf(asOf time.Time) error {
	if asOf.IsZero() {
		return fmt.Errorf("%w: as-of date required", accounting.ErrInvalidRange)
	}
	return nil
}

func validateTrend(rng accounting.DateRange, g accounting.Granularity) error {
	if err := rng.Validate(); err != nil {
		return err
	}
	_, err := accounting.ParseGranularity(string(g))
	return err
}
