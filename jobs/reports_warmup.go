package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/analytics"
	jobmetrics "github.com/odyssey-erp/finstat/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const warmupTimeout = 20 * time.Second

// ReportsWarmupJob pre-populates the report cache for today, month-to-date
// and year-to-date so the first reader does not pay for the build.
type ReportsWarmupJob struct {
	Analytics *analytics.Service
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(analyticsSvc *analytics.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportsWarmupJob {
	return &ReportsWarmupJob{
		Analytics: analyticsSvc,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes report warmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("reports warmup: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	asOf, err := parseAsOf(payload.AsOf, j.now())
	if err != nil {
		return fmt.Errorf("reports warmup: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskReportsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("as_of", asOf.Format(payloadDateLayout)))
	logger.Info("starting reports warmup")
	start := time.Now()

	warmCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()
	if err := j.Warm(warmCtx, asOf); err != nil {
		resultErr = err
		logger.Error("warm reports", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed reports warmup", slog.Duration("duration", time.Since(start)))
	return resultErr
}

// Warm builds every cached report for asOf.
func (j *ReportsWarmupJob) Warm(ctx context.Context, asOf time.Time) error {
	svc := j.Analytics
	mtd, ytd := monthToDate(asOf), yearToDate(asOf)

	if _, err := svc.GetTrialBalance(ctx, asOf); err != nil {
		return fmt.Errorf("trial balance: %w", err)
	}
	if _, err := svc.GetBalanceSheet(ctx, asOf); err != nil {
		return fmt.Errorf("balance sheet: %w", err)
	}
	for _, rng := range []struct {
		label string
		value accounting.DateRange
	}{{"mtd", mtd}, {"ytd", ytd}} {
		if _, err := svc.GetProfitAndLoss(ctx, rng.value); err != nil {
			return fmt.Errorf("profit and loss %s: %w", rng.label, err)
		}
		if _, err := svc.GetCashFlow(ctx, rng.value); err != nil {
			return fmt.Errorf("cash flow %s: %w", rng.label, err)
		}
	}
	if _, err := svc.GetCashFlowComparison(ctx, mtd); err != nil {
		return fmt.Errorf("cash flow comparison: %w", err)
	}
	for _, trend := range []struct {
		rng         accounting.DateRange
		granularity accounting.Granularity
	}{{ytd, accounting.GranularityMonthly}, {mtd, accounting.GranularityDaily}} {
		if _, err := svc.GetProfitAndLossTrend(ctx, trend.rng, trend.granularity); err != nil {
			return fmt.Errorf("profit and loss %s trend: %w", trend.granularity, err)
		}
		if _, err := svc.GetCashFlowTrend(ctx, trend.rng, trend.granularity); err != nil {
			return fmt.Errorf("cash flow %s trend: %w", trend.granularity, err)
		}
	}
	if _, err := svc.GetARAging(ctx, asOf); err != nil {
		return fmt.Errorf("ar aging: %w", err)
	}
	if _, err := svc.GetCollectionEfficiency(ctx, mtd); err != nil {
		return fmt.Errorf("collection efficiency: %w", err)
	}
	return nil
}

func (j *ReportsWarmupJob) logger() *slog.Logger {
	base := j.Logger
	if base == nil {
		base = slog.Default()
	}
	return base.With(slog.String("job", TaskReportsWarmup), slog.String("tenant", j.Analytics.Tenant()))
}

func (j *ReportsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReportsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
