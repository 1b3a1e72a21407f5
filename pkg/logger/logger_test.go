package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/shiftpay/shiftpay-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestLogger_PayrollScopes(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "payroll-worker").
		WithComponent("payroll").
		WithEmployeeID("emp-1").
		WithPeriod("2026-04-01", "2026-04-30").
		WithCorrelationID("corr-9")

	log.Info().Msg("salary slip generated")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "payroll-worker", entry["service"])
	assert.Equal(t, "payroll", entry["component"])
	assert.Equal(t, "emp-1", entry["employee_id"])
	assert.Equal(t, "2026-04-01", entry["period_start"])
	assert.Equal(t, "2026-04-30", entry["period_end"])
	assert.Equal(t, "corr-9", entry["correlation_id"])
	assert.Contains(t, entry, "time")
}

func TestLogger_ScopesDoNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter(&buf, "payroll-service")
	_ = base.WithRequestID("req-1")

	base.Info().Msg("plain")
	assert.NotContains(t, lastEntry(t, &buf), "request_id")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		logger.Nop().WithEmployeeID("emp-1").Error().Msg("discarded")
	})
}
