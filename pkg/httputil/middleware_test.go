package httputil_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/httputil"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiddlewareRouter(buf *bytes.Buffer) http.Handler {
	log := logger.NewWithWriter(buf, "payroll-service")
	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))

	r.Get("/attendance/{employeeID}/status", func(w http.ResponseWriter, r *http.Request) {
		httputil.LoggerFrom(r.Context(), nil).Info().Msg("status read")
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "in"})
	})
	r.Get("/slips/{employeeID}", func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, errors.NotFound("salary slip"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("formula blew up")
	})
	return r
}

func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var e map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &e))
		entries = append(entries, e)
	}
	return entries
}

func TestLogger_ScopesRequestAndEmployee(t *testing.T) {
	var buf bytes.Buffer
	router := newMiddlewareRouter(&buf)

	req := httptest.NewRequest(http.MethodGet, "/attendance/emp-7/status", nil)
	req.Header.Set(httputil.RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "req-42", rr.Header().Get(httputil.RequestIDHeader))

	entries := logEntries(t, &buf)
	require.Len(t, entries, 2)
	// the handler's own entry carries the request id too
	assert.Equal(t, "status read", entries[0]["message"])
	assert.Equal(t, "req-42", entries[0]["request_id"])

	access := entries[1]
	assert.Equal(t, "info", access["level"])
	assert.Equal(t, "emp-7", access["employee_id"])
	assert.Equal(t, float64(http.StatusOK), access["status"])
	assert.Greater(t, access["bytes"], float64(0))
}

func TestLogger_ClientErrorsLogAtWarn(t *testing.T) {
	var buf bytes.Buffer
	router := newMiddlewareRouter(&buf)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/slips/emp-3", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(httputil.RequestIDHeader))
	entries := logEntries(t, &buf)
	assert.Equal(t, "warn", entries[len(entries)-1]["level"])
}

func TestRecoverer_WritesErrorEnvelope(t *testing.T) {
	var buf bytes.Buffer
	router := newMiddlewareRouter(&buf)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)

	entries := logEntries(t, &buf)
	assert.Equal(t, "panic recovered", entries[0]["message"])
	assert.NotEmpty(t, entries[0]["request_id"])
}
