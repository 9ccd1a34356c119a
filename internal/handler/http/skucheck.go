package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/service"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/httputil"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/logger"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/validator"
)

// SKUCheckHandler serves the as-you-type SKU checks of the editor.
type SKUCheckHandler struct {
	checks    *service.FieldChecks
	validator *service.SKUValidator
	logger    *slog.Logger
}

// NewSKUCheckHandler creates a new SKU check HTTP handler.
func NewSKUCheckHandler(checks *service.FieldChecks, validator *service.SKUValidator, logger *slog.Logger) *SKUCheckHandler {
	return &SKUCheckHandler{
		checks:    checks,
		validator: validator,
		logger:    logger,
	}
}

// SKUCheckRequest is the JSON request body for checking one SKU field.
// The SKU itself is not constrained here: the check result carries the
// message for every rule it breaks.
type SKUCheckRequest struct {
	Field string `json:"field" validate:"required,max=300"`
	SKU   string `json:"sku" validate:"max=200"`
}

// CheckSKU handles POST /api/v1/products/{id}/sku-checks
func (h *SKUCheckHandler) CheckSKU(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	limitBody(w, r)

	var req SKUCheckRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx := logger.WithFieldPath(r.Context(), req.Field)
	check, err := h.checks.Check(ctx, id, req.Field, req.SKU)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: check})
}

// ListSKUChecks handles GET /api/v1/products/{id}/sku-checks
func (h *SKUCheckHandler) ListSKUChecks(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	checks, err := h.checks.List(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: checks})
}

// SKUReport handles GET /api/v1/products/{id}/sku-report
func (h *SKUCheckHandler) SKUReport(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	report, err := h.validator.ValidateDocument(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}
