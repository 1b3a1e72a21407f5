package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/httputil"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// EmployeeRegistry registers and reads employees
type EmployeeRegistry interface {
	Register(ctx context.Context, emp *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
}

// PolicyStore reads and replaces the payroll policy
type PolicyStore interface {
	Get(ctx context.Context) (*domain.Policy, error)
	Update(ctx context.Context, p *domain.Policy) error
}

// EmployeeHandler exposes the payroll view of employees
type EmployeeHandler struct {
	employees EmployeeRegistry
	loc       *time.Location
	logger    *logger.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(employees EmployeeRegistry, loc *time.Location, log *logger.Logger) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, loc: loc, logger: log}
}

// Sync registers an employee pushed by the HR system
// POST /employees
func (h *EmployeeHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	joined, err := httputil.ParseDate(req.JoinedAt, h.loc)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	emp := &domain.Employee{
		ID:         req.ID,
		Name:       req.Name,
		ShiftID:    req.ShiftID,
		TemplateID: req.TemplateID,
		BaseSalary: req.BaseSalary,
		Active:     true,
		JoinedAt:   joined,
	}
	if err := h.employees.Register(r.Context(), emp); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.LoggerFrom(r.Context(), h.logger).Info().Str("employee_id", emp.ID).Msg("employee synced")
	httputil.Created(w, emp)
}

// Get returns an employee
// GET /employees/{id}
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employees.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, emp)
}

// PolicyHandler exposes the penalty and statutory policy
type PolicyHandler struct {
	policies PolicyStore
	logger   *logger.Logger
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(policies PolicyStore, log *logger.Logger) *PolicyHandler {
	return &PolicyHandler{policies: policies, logger: log}
}

// Get returns the policy
// GET /policy
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	policy, err := h.policies.Get(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, policy)
}

// Update replaces the policy. Existing penalties are not recomputed.
// PUT /policy
func (h *PolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req PolicyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	policy := &domain.Policy{
		LateInPenalty:         req.LateInPenalty,
		BreakPenalty:          req.BreakPenalty,
		BreakAllowanceMinutes: req.BreakAllowanceMinutes,
		EPFCap:                req.EPFCap,
		EPFPercentage:         req.EPFPercentage,
	}
	if err := h.policies.Update(r.Context(), policy); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.LoggerFrom(r.Context(), h.logger).Info().
		Float64("late_in_penalty", policy.LateInPenalty).
		Float64("break_penalty", policy.BreakPenalty).
		Msg("policy updated")
	httputil.JSON(w, http.StatusOK, policy)
}
