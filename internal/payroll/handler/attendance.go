package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/service"
	"github.com/shiftpay/shiftpay-backend/pkg/httputil"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// AttendanceHandler handles the live attendance endpoints
type AttendanceHandler struct {
	tracker     *service.Tracker
	projections *service.ProjectionService
	loc         *time.Location
	logger      *logger.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(tracker *service.Tracker, projections *service.ProjectionService, loc *time.Location, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		tracker:     tracker,
		projections: projections,
		loc:         loc,
		logger:      log,
	}
}

// decodeReason reads an optional {"reason": "..."} body
func decodeReason(r *http.Request) (string, error) {
	var req ReasonRequest
	if r.ContentLength == 0 {
		return "", nil
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return "", err
	}
	if err := httputil.Validate(&req); err != nil {
		return "", err
	}
	return req.Reason, nil
}

// ClockIn opens an attendance or ends the running break
// POST /attendance/{employeeID}/clock-in
func (h *AttendanceHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	reason, err := decodeReason(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	att, err := h.tracker.ClockIn(r.Context(), chi.URLParam(r, "employeeID"), reason)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, att)
}

// StartBreak opens a break
// POST /attendance/{employeeID}/break
func (h *AttendanceHandler) StartBreak(w http.ResponseWriter, r *http.Request) {
	reason, err := decodeReason(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	att, err := h.tracker.StartBreak(r.Context(), chi.URLParam(r, "employeeID"), reason)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, att)
}

// ClockOut closes the running attendance
// POST /attendance/{employeeID}/clock-out
func (h *AttendanceHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	reason, err := decodeReason(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	att, err := h.tracker.ClockOut(r.Context(), chi.URLParam(r, "employeeID"), reason)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, att)
}

// Status reports live state and minutes
// GET /attendance/{employeeID}/status
func (h *AttendanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	report, err := h.tracker.Status(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}

// Resolve closes an attendance the employee left open
// POST /attendance/{employeeID}/resolve
func (h *AttendanceHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	att, err := h.tracker.ResolveAbandoned(r.Context(), chi.URLParam(r, "employeeID"), req.ClockOut, req.Reason)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, att)
}

// Sheet returns the day-by-day attendance sheet
// GET /attendance/{employeeID}/sheet?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *AttendanceHandler) Sheet(w http.ResponseWriter, r *http.Request) {
	from, err := httputil.ParseDate(r.URL.Query().Get("from"), h.loc)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	to, err := httputil.ParseDate(r.URL.Query().Get("to"), h.loc)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	rows, err := h.projections.AttendanceSheet(r.Context(), chi.URLParam(r, "employeeID"), from, to)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rows)
}
