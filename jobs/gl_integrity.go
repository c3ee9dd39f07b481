package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finstat/internal/accounting/reports"
	jobmetrics "github.com/odyssey-erp/finstat/internal/jobs"
)

// Integrity check kinds, used as metric labels.
const (
	CheckTrialBalance = "trial_balance"
	CheckBalanceSheet = "balance_sheet"
	CheckCashFlow     = "cash_flow"
)

// IntegrityFinding describes one failed ledger identity.
type IntegrityFinding struct {
	Kind       string
	Difference decimal.Decimal
}

// IntegrityResult summarises a GL integrity run.
type IntegrityResult struct {
	RunID    uuid.UUID
	AsOf     time.Time
	Findings []IntegrityFinding
}

// OK reports whether every identity held.
func (r IntegrityResult) OK() bool {
	return len(r.Findings) == 0
}

// GLIntegrityJob rebuilds the trial balance, the balance sheet and the
// month-to-date cash flow and records any identity that does not hold. A
// broken ledger is reported through logs and metrics, never as a job failure.
type GLIntegrityJob struct {
	Reports *reports.Service
	Tenant  string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewGLIntegrityJob wires dependencies for the integrity handler.
func NewGLIntegrityJob(rpt *reports.Service, tenant string, logger *slog.Logger, metrics *jobmetrics.Metrics) *GLIntegrityJob {
	return &GLIntegrityJob{
		Reports: rpt,
		Tenant:  tenant,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes GL integrity tasks.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("gl integrity: handler not configured")
	}
	var payload GLIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("gl integrity: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	asOf, err := parseAsOf(payload.AsOf, j.now())
	if err != nil {
		return fmt.Errorf("gl integrity: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskGLIntegrity)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	_, resultErr = j.Check(ctx, asOf)
	return resultErr
}

// Check runs every identity at asOf.
func (j *GLIntegrityJob) Check(ctx context.Context, asOf time.Time) (IntegrityResult, error) {
	result := IntegrityResult{RunID: uuid.New(), AsOf: asOf}
	logger := j.logger().With(
		slog.String("run_id", result.RunID.String()),
		slog.String("as_of", asOf.Format(payloadDateLayout)),
	)
	logger.Info("GL integrity check started")

	tb, err := j.Reports.TrialBalance(ctx, asOf)
	if err != nil {
		logger.Error("build trial balance", slog.Any("error", err))
		return result, err
	}
	j.record(&result, logger, CheckTrialBalance, tb.IsBalanced, tb.Difference)

	bs, err := j.Reports.BalanceSheet(ctx, asOf)
	if err != nil {
		logger.Error("build balance sheet", slog.Any("error", err))
		return result, err
	}
	j.record(&result, logger, CheckBalanceSheet, bs.IsBalanced, bs.Difference)

	cf, err := j.Reports.CashFlow(ctx, monthToDate(asOf))
	if err != nil {
		logger.Error("build cash flow", slog.Any("error", err))
		return result, err
	}
	j.record(&result, logger, CheckCashFlow, cf.Reconciled, cf.Discrepancy)

	logger.Info("GL integrity check executed", slog.Int("anomalies", len(result.Findings)))
	return result, nil
}

func (j *GLIntegrityJob) record(result *IntegrityResult, logger *slog.Logger, kind string, ok bool, diff decimal.Decimal) {
	amount, _ := diff.Abs().Float64()
	j.metrics().SetImbalance(kind, j.Tenant, amount)
	if ok {
		return
	}
	result.Findings = append(result.Findings, IntegrityFinding{Kind: kind, Difference: diff})
	j.metrics().AddAnomalies(kind, j.Tenant, 1)
	logger.Warn("ledger identity violated", slog.String("check", kind), slog.String("difference", diff.String()))
}

func (j *GLIntegrityJob) logger() *slog.Logger {
	base := j.Logger
	if base == nil {
		base = slog.Default()
	}
	return base.With(slog.String("job", TaskGLIntegrity), slog.String("tenant", j.Tenant))
}

func (j *GLIntegrityJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *GLIntegrityJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
