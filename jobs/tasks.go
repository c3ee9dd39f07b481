package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/finstat/internal/accounting"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportsWarmup pre-builds the cached financial reports.
	TaskReportsWarmup = "reports:warmup"
	// TaskGLIntegrity checks the ledger identities and records anomalies.
	TaskGLIntegrity = "gl:integrity"
)

const payloadDateLayout = "2006-01-02"

// ReportsWarmupPayload selects the as-of date to warm; empty means today.
type ReportsWarmupPayload struct {
	AsOf string `json:"as_of,omitempty"`
}

// GLIntegrityPayload selects the as-of date to check; empty means today.
type GLIntegrityPayload struct {
	AsOf string `json:"as_of,omitempty"`
}

// NewReportsWarmupTask constructs a warmup task.
func NewReportsWarmupTask(payload ReportsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data), nil
}

// NewGLIntegrityTask constructs an integrity-check task.
func NewGLIntegrityTask(payload GLIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGLIntegrity, data), nil
}

// parseAsOf resolves an optional YYYY-MM-DD payload date against now.
func parseAsOf(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return accounting.Day(now), nil
	}
	t, err := time.Parse(payloadDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse as_of %q: %w", raw, err)
	}
	return t, nil
}

// monthToDate returns the first of asOf's month through asOf.
func monthToDate(asOf time.Time) accounting.DateRange {
	start := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	return accounting.NewDateRange(start, asOf)
}

// yearToDate returns January 1st of asOf's year through asOf.
func yearToDate(asOf time.Time) accounting.DateRange {
	start := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return accounting.NewDateRange(start, asOf)
}
