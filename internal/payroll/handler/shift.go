package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/service"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/httputil"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// ShiftHandler handles shift definitions
type ShiftHandler struct {
	shifts *service.ShiftService
	logger *logger.Logger
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(shifts *service.ShiftService, log *logger.Logger) *ShiftHandler {
	return &ShiftHandler{shifts: shifts, logger: log}
}

// Create defines a shift
// POST /shifts
func (h *ShiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	shift, invalid := req.ToShift()
	if len(invalid) > 0 {
		httputil.Error(w, errors.Validation(invalid))
		return
	}

	if err := h.shifts.Create(r.Context(), shift); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, shift)
}

// Get returns a shift
// GET /shifts/{id}
func (h *ShiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	shift, err := h.shifts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, shift)
}
