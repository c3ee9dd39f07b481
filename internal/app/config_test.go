package app

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "default", cfg.LedgerTenant)
	require.Equal(t, 10*time.Minute, cfg.ReportCacheTTL)
	require.Equal(t, 5, cfg.WorkerConcurrency)
	require.Equal(t, ":9090", cfg.OpsAddr)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LEDGER_TENANT", "acme")
	t.Setenv("REPORT_CACHE_TTL", "90s")
	t.Setenv("WORKER_CONCURRENCY", "12")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "acme", cfg.LedgerTenant)
	require.Equal(t, 90*time.Second, cfg.ReportCacheTTL)
	require.Equal(t, 12, cfg.WorkerConcurrency)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("REPORT_CACHE_TTL", "0s")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("REPORT_CACHE_TTL", "1m")
	t.Setenv("LEDGER_TENANT", "   ")
	_, err = LoadConfig()
	require.Error(t, err)

	t.Setenv("LEDGER_TENANT", "acme")
	t.Setenv("WORKER_CONCURRENCY", "abc")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", AppEnv: "production"}, &buf)
	logger.Debug("hidden")
	logger.Info("visible", "tenant", "acme")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "visible", line["msg"])
	require.Equal(t, "acme", line["tenant"])
}

func TestInTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	require.False(t, InTestMode())
}
