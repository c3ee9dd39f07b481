package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/accounting/reports"
	"github.com/odyssey-erp/finstat/internal/analytics"
	"github.com/odyssey-erp/finstat/internal/ar"
	jobmetrics "github.com/odyssey-erp/finstat/internal/jobs"
	"github.com/odyssey-erp/finstat/internal/store/memory"
	_ "github.com/odyssey-erp/finstat/testing"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newLedgerStore(t *testing.T, equityOpening string) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	accounts := []accounting.Account{
		{ID: 1, Code: "1000", Name: "Cash", Type: accounting.AccountTypeAsset, SubType: accounting.SubTypeCash, OpeningBalance: decimal.RequireFromString("500"), IsActive: true},
		{ID: 2, Code: "3000", Name: "Capital", Type: accounting.AccountTypeEquity, SubType: accounting.SubTypeOwnersEquity, OpeningBalance: decimal.RequireFromString(equityOpening), IsActive: true},
		{ID: 3, Code: "4000", Name: "Sales", Type: accounting.AccountTypeRevenue, SubType: accounting.SubTypeSalesRevenue, OpeningBalance: decimal.Zero, IsActive: true},
	}
	for _, acc := range accounts {
		require.NoError(t, store.CreateAccount(ctx, acc))
	}
	_, err := store.PostEntry(ctx, accounting.JournalEntry{
		Date:     day(2025, time.January, 10),
		SourceID: uuid.New(),
		Lines: []accounting.JournalLine{
			{AccountID: 1, Debit: decimal.RequireFromString("250"), Credit: decimal.Zero},
			{AccountID: 3, Debit: decimal.Zero, Credit: decimal.RequireFromString("250")},
		},
	})
	require.NoError(t, err)
	store.AddInvoice(ctx, ar.Invoice{
		Number:       "INV-1",
		CustomerID:   7,
		CustomerName: "Acme",
		InvoiceDate:  day(2025, time.January, 5),
		DueDate:      day(2025, time.January, 20),
		Total:        decimal.RequireFromString("250"),
		Status:       ar.StatusPosted,
	})
	return store
}

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestParseAsOf(t *testing.T) {
	now := time.Date(2025, time.March, 9, 22, 15, 0, 0, time.UTC)

	got, err := parseAsOf("", now)
	require.NoError(t, err)
	require.Equal(t, day(2025, time.March, 9), got)

	got, err = parseAsOf("2024-12-31", now)
	require.NoError(t, err)
	require.Equal(t, day(2024, time.December, 31), got)

	_, err = parseAsOf("31/12/2024", now)
	require.Error(t, err)
}

func TestMonthAndYearToDate(t *testing.T) {
	asOf := day(2025, time.May, 17)

	mtd := monthToDate(asOf)
	require.Equal(t, day(2025, time.May, 1), mtd.From)
	require.Equal(t, asOf, mtd.To)

	ytd := yearToDate(asOf)
	require.Equal(t, day(2025, time.January, 1), ytd.From)
	require.Equal(t, asOf, ytd.To)
}

func TestTaskConstructorsEncodePayload(t *testing.T) {
	task, err := NewReportsWarmupTask(ReportsWarmupPayload{AsOf: "2025-01-31"})
	require.NoError(t, err)
	require.Equal(t, TaskReportsWarmup, task.Type())
	require.JSONEq(t, `{"as_of":"2025-01-31"}`, string(task.Payload()))

	task, err = NewGLIntegrityTask(GLIntegrityPayload{})
	require.NoError(t, err)
	require.Equal(t, TaskGLIntegrity, task.Type())
	require.JSONEq(t, `{}`, string(task.Payload()))
}

func TestGLIntegrityBalancedLedger(t *testing.T) {
	store := newLedgerStore(t, "500")
	registry := prometheus.NewRegistry()
	var logs bytes.Buffer
	job := NewGLIntegrityJob(reports.NewService(store, store, nil), "acme", quietLogger(&logs), jobmetrics.NewMetrics(registry))

	result, err := job.Check(context.Background(), day(2025, time.January, 31))
	require.NoError(t, err)
	require.True(t, result.OK())
	require.NotEqual(t, uuid.Nil, result.RunID)
	require.NotContains(t, logs.String(), "ledger identity violated")

	count, err := testutil.GatherAndCount(registry, "odyssey_ledger_anomalies_total")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestGLIntegrityReportsImbalanceWithoutFailing(t *testing.T) {
	// No equity opening to offset the cash opening.
	store := newLedgerStore(t, "0")
	registry := prometheus.NewRegistry()
	var logs bytes.Buffer
	job := NewGLIntegrityJob(reports.NewService(store, store, nil), "acme", quietLogger(&logs), jobmetrics.NewMetrics(registry))
	job.clock = func() time.Time { return time.Date(2025, time.January, 31, 8, 0, 0, 0, time.UTC) }

	task, err := NewGLIntegrityTask(GLIntegrityPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	result, err := job.Check(context.Background(), day(2025, time.January, 31))
	require.NoError(t, err)
	require.False(t, result.OK())
	kinds := make([]string, 0, len(result.Findings))
	for _, f := range result.Findings {
		kinds = append(kinds, f.Kind)
	}
	require.ElementsMatch(t, []string{CheckTrialBalance, CheckBalanceSheet}, kinds)
	require.Contains(t, logs.String(), "ledger identity violated")
	require.Contains(t, logs.String(), "run_id=")

	expected := `
# HELP odyssey_ledger_anomalies_total Ledger integrity anomalies grouped by check and tenant.
# TYPE odyssey_ledger_anomalies_total counter
odyssey_ledger_anomalies_total{kind="balance_sheet",tenant="acme"} 2
odyssey_ledger_anomalies_total{kind="trial_balance",tenant="acme"} 2
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "odyssey_ledger_anomalies_total"))

	imbalance := `
# HELP odyssey_ledger_imbalance_amount Absolute difference reported by the latest ledger integrity check.
# TYPE odyssey_ledger_imbalance_amount gauge
odyssey_ledger_imbalance_amount{kind="balance_sheet",tenant="acme"} 500
odyssey_ledger_imbalance_amount{kind="cash_flow",tenant="acme"} 0
odyssey_ledger_imbalance_amount{kind="trial_balance",tenant="acme"} 500
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(imbalance), "odyssey_ledger_imbalance_amount"))

	runs := `
# HELP odyssey_jobs_total Total job executions partitioned by job name and status.
# TYPE odyssey_jobs_total counter
odyssey_jobs_total{job="gl:integrity",status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(runs), "odyssey_jobs_total"))
}

func TestGLIntegrityRejectsBadPayload(t *testing.T) {
	store := newLedgerStore(t, "500")
	job := NewGLIntegrityJob(reports.NewService(store, store, nil), "acme", nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), asynq.NewTask(TaskGLIntegrity, []byte("not-json")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), asynq.NewTask(TaskGLIntegrity, []byte(`{"as_of":"31-01-2025"}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func newWarmupJob(t *testing.T) (*ReportsWarmupJob, *miniredis.Miniredis) {
	t.Helper()
	store := newLedgerStore(t, "500")
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := analytics.NewCache(client, "acme", time.Minute)
	svc := analytics.NewService("acme", reports.NewService(store, store, nil), store, cache, nil)
	job := NewReportsWarmupJob(svc, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return time.Date(2025, time.February, 14, 9, 0, 0, 0, time.UTC) }
	return job, mr
}

func TestReportsWarmupPopulatesCache(t *testing.T) {
	job, mr := newWarmupJob(t)

	task, err := NewReportsWarmupTask(ReportsWarmupPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	keys := mr.Keys()
	for _, prefix := range []string{
		"analytics:trial_balance:acme:2025-02-14",
		"analytics:balance_sheet:acme:2025-02-14",
		"analytics:pl:acme:2025-02-01:2025-02-14",
		"analytics:pl:acme:2025-01-01:2025-02-14",
		"analytics:cashflow:acme:2025-02-01:2025-02-14",
		"analytics:cashflow_cmp:acme:2025-02-01:2025-02-14",
		"analytics:pl_trend:acme:2025-01-01:2025-02-14:monthly",
		"analytics:cashflow_trend:acme:2025-01-01:2025-02-14:monthly",
		"analytics:pl_trend:acme:2025-02-01:2025-02-14:daily",
		"analytics:cashflow_trend:acme:2025-02-01:2025-02-14:daily",
		"analytics:aging_ar:acme:2025-02-14",
		"analytics:collection:acme:2025-02-01:2025-02-14",
	} {
		require.True(t, hasPrefix(keys, prefix), "missing cache entry %s in %v", prefix, keys)
	}
}

func TestReportsWarmupRejectsBadDate(t *testing.T) {
	job, _ := newWarmupJob(t)
	payload, err := json.Marshal(ReportsWarmupPayload{AsOf: "yesterday"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), asynq.NewTask(TaskReportsWarmup, payload))
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestReportsWarmupNotConfigured(t *testing.T) {
	var job *ReportsWarmupJob
	require.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskReportsWarmup, nil)))
}

func hasPrefix(keys []string, prefix string) bool {
	for _, k := range keys {
		if strings.HasPrefix(k, prefix+":") {
			return true
		}
	}
	return false
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHealthHandlerReportsQueue(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3, Retry: 1}}, nil, nil).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"queue":"default","pending":3,"active":0,"scheduled":0,"retry":1}`, rec.Body.String())
}

func TestHealthHandlerInspectorFailure(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{err: errors.New("redis down")}, nil, nil).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type recordingEnqueuer struct {
	warmups   []ReportsWarmupPayload
	integrity []GLIntegrityPayload
	warmupErr error
}

func (e *recordingEnqueuer) EnqueueReportsWarmup(_ context.Context, payload ReportsWarmupPayload) (*asynq.TaskInfo, error) {
	if e.warmupErr != nil {
		return nil, e.warmupErr
	}
	e.warmups = append(e.warmups, payload)
	return &asynq.TaskInfo{ID: "warm-1", Queue: QueueDefault, Type: TaskReportsWarmup}, nil
}

func (e *recordingEnqueuer) EnqueueGLIntegrity(_ context.Context, payload GLIntegrityPayload) (*asynq.TaskInfo, error) {
	e.integrity = append(e.integrity, payload)
	return &asynq.TaskInfo{ID: "gl-1", Queue: QueueDefault, Type: TaskGLIntegrity}, nil
}

var _ Enqueuer = (*Client)(nil)

func TestTriggerRoutesEnqueueTasks(t *testing.T) {
	enq := &recordingEnqueuer{}
	r := chi.NewRouter()
	NewHandler(nil, enq, nil).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/integrity?as_of=2025-01-31", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.JSONEq(t, `{"id":"gl-1","type":"gl:integrity","queue":"default","as_of":"2025-01-31"}`, rec.Body.String())
	require.Equal(t, []GLIntegrityPayload{{AsOf: "2025-01-31"}}, enq.integrity)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/warmup", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []ReportsWarmupPayload{{}}, enq.warmups)
}

func TestTriggerRoutesRejectBadInput(t *testing.T) {
	enq := &recordingEnqueuer{warmupErr: asynq.ErrDuplicateTask}
	r := chi.NewRouter()
	NewHandler(nil, enq, nil).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/integrity?as_of=31-01-2025", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, enq.integrity)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/warmup", nil))
	require.Equal(t, http.StatusConflict, rec.Code)

	r = chi.NewRouter()
	NewHandler(nil, nil, nil).MountRoutes(r)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/warmup", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{})
	require.Error(t, err)
}
