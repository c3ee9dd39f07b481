package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/accounting/reports"
	"github.com/odyssey-erp/finstat/internal/ar"
)

// Report names used in cache keys and metric labels.
const (
	ReportTrialBalance            = "trial_balance"
	ReportTrialBalanceComparison  = "trial_balance_cmp"
	ReportBalanceSheet            = "balance_sheet"
	ReportBalanceSheetComparison  = "balance_sheet_cmp"
	ReportProfitAndLoss           = "pl"
	ReportProfitAndLossTrend      = "pl_trend"
	ReportProfitAndLossComparison = "pl_cmp"
	ReportCashFlow                = "cashflow"
	ReportCashFlowTrend           = "cashflow_trend"
	ReportCashFlowComparison      = "cashflow_cmp"
	ReportARAging                 = "aging_ar"
	ReportCollectionEfficiency    = "collection"
)

// ErrNoReports is returned when the service was built without a report source.
var ErrNoReports = errors.New("analytics: report service required")

// Service fronts the report engine for one resolved tenant with a versioned
// Redis cache. Concurrent requests for the same key share one build.
type Service struct {
	tenant   string
	reports  *reports.Service
	invoices ar.Reader
	cache    *Cache
	logger   *slog.Logger
	now      func() time.Time
	group    singleflight.Group
}

// NewService wires the report engine, the invoice source and the cache.
func NewService(tenant string, rpt *reports.Service, invoices ar.Reader, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tenant:   tenant,
		reports:  rpt,
		invoices: invoices,
		cache:    cache,
		logger:   logger.With(slog.String("tenant", tenant)),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock used to default as-of dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Tenant returns the tenant the service is bound to.
func (s *Service) Tenant() string {
	return s.tenant
}

// Cache exposes the underlying cache for invalidation.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Today returns the service clock truncated to a civil date.
func (s *Service) Today() time.Time {
	return accounting.Day(s.now())
}

func (s *Service) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return s.Today()
	}
	return accounting.Day(t)
}

// GetTrialBalance returns the cached trial balance at asOf (today when zero).
func (s *Service) GetTrialBalance(ctx context.Context, asOf time.Time) (reports.TrialBalance, error) {
	asOf = s.asOf(asOf)
	return cached(ctx, s, ReportTrialBalance, []string{dateToken(asOf)}, func(ctx context.Context) (reports.TrialBalance, error) {
		return s.reports.TrialBalance(ctx, asOf)
	})
}

// GetTrialBalanceComparison returns the trial balance at asOf against a year earlier.
func (s *Service) GetTrialBalanceComparison(ctx context.Context, asOf time.Time) (reports.TrialBalanceComparison, error) {
	asOf = s.asOf(asOf)
	return cached(ctx, s, ReportTrialBalanceComparison, []string{dateToken(asOf)}, func(ctx context.Context) (reports.TrialBalanceComparison, error) {
		return s.reports.TrialBalanceComparison(ctx, asOf)
	})
}

// GetBalanceSheet returns the cached balance sheet at asOf (today when zero).
func (s *Service) GetBalanceSheet(ctx context.Context, asOf time.Time) (reports.BalanceSheet, error) {
	asOf = s.asOf(asOf)
	return cached(ctx, s, ReportBalanceSheet, []string{dateToken(asOf)}, func(ctx context.Context) (reports.BalanceSheet, error) {
		return s.reports.BalanceSheet(ctx, asOf)
	})
}

// GetBalanceSheetComparison returns the balance sheet at asOf against a year earlier.
func (s *Service) GetBalanceSheetComparison(ctx context.Context, asOf time.Time) (reports.BalanceSheetComparison, error) {
	asOf = s.asOf(asOf)
	return cached(ctx, s, ReportBalanceSheetComparison, []string{dateToken(asOf)}, func(ctx context.Context) (reports.BalanceSheetComparison, error) {
		return s.reports.BalanceSheetComparison(ctx, asOf)
	})
}

// GetProfitAndLoss returns the cached P&L for rng.
func (s *Service) GetProfitAndLoss(ctx context.Context, rng accounting.DateRange) (reports.ProfitAndLoss, error) {
	if err := rng.Validate(); err != nil {
		return reports.ProfitAndLoss{}, err
	}
	return cached(ctx, s, ReportProfitAndLoss, rangeTokens(rng), func(ctx context.Context) (reports.ProfitAndLoss, error) {
		return s.reports.ProfitAndLoss(ctx, rng)
	})
}

// GetProfitAndLossTrend returns P&L points for rng bucketed by g (monthly
// when empty).
func (s *Service) GetProfitAndLossTrend(ctx context.Context, rng accounting.DateRange, g accounting.Granularity) ([]reports.PLTrendPoint, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	g, err := accounting.ParseGranularity(string(g))
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, ReportProfitAndLossTrend, trendTokens(rng, g), func(ctx context.Context) ([]reports.PLTrendPoint, error) {
		return s.reports.ProfitAndLossTrend(ctx, rng, g)
	})
}

// GetProfitAndLossComparison returns the P&L for rng against the preceding period.
func (s *Service) GetProfitAndLossComparison(ctx context.Context, rng accounting.DateRange) (reports.ProfitAndLossComparison, error) {
	if err := rng.Validate(); err != nil {
		return reports.ProfitAndLossComparison{}, err
	}
	return cached(ctx, s, ReportProfitAndLossComparison, rangeTokens(rng), func(ctx context.Context) (reports.ProfitAndLossComparison, error) {
		return s.reports.ProfitAndLossComparison(ctx, rng)
	})
}

// GetCashFlow returns the cached cash-flow statement for rng.
func (s *Service) GetCashFlow(ctx context.Context, rng accounting.DateRange) (reports.CashFlowStatement, error) {
	if err := rng.Validate(); err != nil {
		return reports.CashFlowStatement{}, err
	}
	return cached(ctx, s, ReportCashFlow, rangeTokens(rng), func(ctx context.Context) (reports.CashFlowStatement, error) {
		return s.reports.CashFlow(ctx, rng)
	})
}

// GetCashFlowComparison returns the cash flow for rng against the preceding
// period and the prior year.
func (s *Service) GetCashFlowComparison(ctx context.Context, rng accounting.DateRange) (reports.CashFlowComparison, error) {
	if err := rng.Validate(); err != nil {
		return reports.CashFlowComparison{}, err
	}
	return cached(ctx, s, ReportCashFlowComparison, rangeTokens(rng), func(ctx context.Context) (reports.CashFlowComparison, error) {
		return s.reports.CashFlowComparison(ctx, rng)
	})
}

// GetCashFlowTrend returns cash-flow points for rng bucketed by g (monthly
// when empty).
func (s *Service) GetCashFlowTrend(ctx context.Context, rng accounting.DateRange, g accounting.Granularity) ([]reports.CashFlowTrendPoint, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	g, err := accounting.ParseGranularity(string(g))
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, ReportCashFlowTrend, trendTokens(rng, g), func(ctx context.Context) ([]reports.CashFlowTrendPoint, error) {
		return s.reports.CashFlowTrend(ctx, rng, g)
	})
}

// GetARAging returns receivables aging at asOf (today when zero).
func (s *Service) GetARAging(ctx context.Context, asOf time.Time) (AgingReport, error) {
	asOf = s.asOf(asOf)
	return cached(ctx, s, ReportARAging, []string{dateToken(asOf)}, func(ctx context.Context) (AgingReport, error) {
		invoices, err := s.listInvoices(ctx, ar.InvoiceFilter{To: asOf, OutstandingOnly: true})
		if err != nil {
			return AgingReport{}, err
		}
		return BuildAging(invoices, asOf), nil
	})
}

// GetCollectionEfficiency returns collection statistics for rng. Invoices
// raised before rng are fetched too so payments landing inside it count.
func (s *Service) GetCollectionEfficiency(ctx context.Context, rng accounting.DateRange) (CollectionEfficiency, error) {
	if err := rng.Validate(); err != nil {
		return CollectionEfficiency{}, err
	}
	rng = accounting.NewDateRange(rng.From, rng.To)
	return cached(ctx, s, ReportCollectionEfficiency, rangeTokens(rng), func(ctx context.Context) (CollectionEfficiency, error) {
		invoices, err := s.listInvoices(ctx, ar.InvoiceFilter{To: rng.To, ExcludeVoid: true})
		if err != nil {
			return CollectionEfficiency{}, err
		}
		return BuildCollectionEfficiency(invoices, rng), nil
	})
}

func (s *Service) listInvoices(ctx context.Context, filter ar.InvoiceFilter) ([]ar.Invoice, error) {
	if s.invoices == nil {
		return nil, nil
	}
	invoices, err := s.invoices.ListInvoices(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

// sharedBuildTimeout bounds a collapsed build once it no longer follows the
// cancellation of the caller that started it.
const sharedBuildTimeout = 30 * time.Second

// cached resolves a report through the versioned cache. Builds for the same
// key are collapsed with singleflight; the value always round-trips through
// JSON so cached and fresh results have the same shape. The shared build runs
// detached from any single caller's cancellation, and each caller still stops
// waiting when its own context ends.
func cached[T any](ctx context.Context, s *Service, report string, parts []string, build func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if s.reports == nil && report != ReportARAging && report != ReportCollectionEfficiency {
		return zero, ErrNoReports
	}
	key, err := s.cache.BuildKey(ctx, report, parts...)
	if err != nil {
		return zero, fmt.Errorf("analytics: build cache key: %w", err)
	}

	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedBuildTimeout)
		defer cancel()

		var value T
		missed := false
		loader := func(ctx context.Context) (interface{}, error) {
			missed = true
			start := time.Now()
			built, err := build(ctx)
			observeBuildDuration(report, s.tenant, time.Since(start))
			return built, err
		}
		if err := s.cache.FetchJSON(buildCtx, key, &value, loader); err != nil {
			return nil, err
		}
		if missed {
			recordCacheMiss(report, s.tenant)
			s.logger.Debug("report built", slog.String("report", report), slog.String("key", key))
		} else {
			recordCacheHit(report, s.tenant)
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func trendTokens(rng accounting.DateRange, g accounting.Granularity) []string {
	return append(rangeTokens(rng), string(g))
}

func rangeTokens(rng accounting.DateRange) []string {
	return []string{dateToken(accounting.Day(rng.From)), dateToken(accounting.Day(rng.To))}
}
