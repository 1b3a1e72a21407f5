package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/service"
	"github.com/shiftpay/shiftpay-backend/pkg/httputil"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// TemplateHandler handles salary template endpoints
type TemplateHandler struct {
	templates *service.TemplateService
	logger    *logger.Logger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templates *service.TemplateService, log *logger.Logger) *TemplateHandler {
	return &TemplateHandler{templates: templates, logger: log}
}

// Get returns a template
// GET /templates/{id}
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	tmpl, err := h.templates.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, tmpl)
}

// Validate evaluates a draft template against a sample salary
// POST /templates/validate
func (h *TemplateHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateTemplateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	values, err := h.templates.Validate(r.Context(), req.ToTemplate(""), req.Salary)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"components": values,
		"total":      values.Total(),
	})
}

// Create stores a new template
// POST /templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "", http.StatusCreated)
}

// Update replaces a template, checking every assigned employee
// PUT /templates/{id}
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *TemplateHandler) save(w http.ResponseWriter, r *http.Request, id string, status int) {
	var req TemplateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	tmpl := req.ToTemplate(id)
	if err := h.templates.Save(r.Context(), tmpl); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, status, tmpl)
}
