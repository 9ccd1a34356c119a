package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/export"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/service"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/httputil"
)

// VariantHandler handles the variant generator endpoints.
type VariantHandler struct {
	variants *service.VariantService
	products *service.ProductService
	logger   *slog.Logger
}

// NewVariantHandler creates a new variant HTTP handler.
func NewVariantHandler(variants *service.VariantService, products *service.ProductService, logger *slog.Logger) *VariantHandler {
	return &VariantHandler{
		variants: variants,
		products: products,
		logger:   logger,
	}
}

// GenerateVariants handles POST /api/v1/products/{id}/variants/generate
func (h *VariantHandler) GenerateVariants(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	revision, ok := expectedRevision(w, r)
	if !ok {
		return
	}

	product, err := h.variants.Generate(r.Context(), id, revision)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeProduct(w, http.StatusOK, product)
}

// ClearVariants handles DELETE /api/v1/products/{id}/variants
func (h *VariantHandler) ClearVariants(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	revision, ok := expectedRevision(w, r)
	if !ok {
		return
	}

	product, err := h.variants.Clear(r.Context(), id, revision)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeProduct(w, http.StatusOK, product)
}

// PreviewVariants handles GET /api/v1/products/{id}/variants/preview
func (h *VariantHandler) PreviewVariants(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	variants, err := h.variants.Preview(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: variants})
}

// ExportVariants handles GET /api/v1/products/{id}/variants/export
func (h *VariantHandler) ExportVariants(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// Render fully before writing headers so a failure can still be a JSON error.
	var buf bytes.Buffer
	if err := export.WriteVariants(&buf, product); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	name := product.Slug
	if name == "" {
		name = product.PublishedID()
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-variants.xlsx"`, name))
	setETag(w, product.Revision)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
