package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/service"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/httputil"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/pagination"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/validator"
)

// ProductHandler handles HTTP requests for product document endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Name           string               `json:"name" validate:"required,min=1,max=200"`
	Description    string               `json:"description" validate:"max=5000"`
	SKU            string               `json:"sku"`
	Price          int64                `json:"price"`
	CompareAtPrice *int64               `json:"compare_at_price"`
	Shipping       *domain.ShippingInfo `json:"shipping"`
	Options        []OptionRequest      `json:"options" validate:"dive"`
}

// UpdateProductRequest is the JSON request body for updating a product.
type UpdateProductRequest struct {
	Name           *string              `json:"name" validate:"omitempty,min=1,max=200"`
	Description    *string              `json:"description" validate:"omitempty,max=5000"`
	SKU            *string              `json:"sku"`
	Price          *int64               `json:"price"`
	CompareAtPrice *int64               `json:"compare_at_price"`
	Shipping       *domain.ShippingInfo `json:"shipping"`
	Status         *string              `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// UpdateVariantRequest is the JSON request body for editing one variant.
type UpdateVariantRequest struct {
	SKU              *string              `json:"sku" validate:"omitempty,sku"`
	Title            *string              `json:"title" validate:"omitempty,max=200"`
	Description      *string              `json:"description" validate:"omitempty,max=5000"`
	Price            *int64               `json:"price"`
	CompareAtPrice   *int64               `json:"compare_at_price"`
	Stock            *int                 `json:"stock" validate:"omitempty,gte=0"`
	MaxOrderQuantity *int                 `json:"max_order_quantity" validate:"omitempty,gte=0"`
	MediaAssociation *string              `json:"media_association" validate:"omitempty,max=500"`
	ShippingOverride *domain.ShippingInfo `json:"shipping_override"`
}

// --- Handlers ---

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := pagination.Parse(q)
	if err != nil {
		invalidParameter(w, err.Error())
		return
	}
	filter := repository.ProductFilter{
		Page:    page.Page,
		PerPage: page.PerPage,
	}
	if v := q.Get("status"); v != "" {
		if !domain.IsValidStatus(v) {
			invalidParameter(w, "status must be one of: draft, published, archived")
			return
		}
		filter.Status = &v
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	if v := q.Get("drafts"); v != "" {
		drafts, err := strconv.ParseBool(v)
		if err != nil {
			invalidParameter(w, "drafts must be true or false")
			return
		}
		filter.Drafts = &drafts
	}

	products, total, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(products, total, filter.Page, filter.PerPage))
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeProduct(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r)

	var req CreateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateProductInput{
		Name:           req.Name,
		Description:    req.Description,
		SKU:            req.SKU,
		Price:          req.Price,
		CompareAtPrice: req.CompareAtPrice,
		Shipping:       req.Shipping,
		Options:        toDomainOptions(req.Options),
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeProduct(w, http.StatusCreated, product)
}

// UpdateProduct handles PATCH /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	revision, ok := expectedRevision(w, r)
	if !ok {
		return
	}

	limitBody(w, r)

	var req UpdateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.UpdateProductInput{
		ExpectedRevision: revision,
		Name:             req.Name,
		Description:      req.Description,
		SKU:              req.SKU,
		Price:            req.Price,
		CompareAtPrice:   req.CompareAtPrice,
		Shipping:         req.Shipping,
		Status:           req.Status,
	}

	product, err := h.service.UpdateProduct(r.Context(), id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeProduct(w, http.StatusOK, product)
}

// UpdateOptions handles PUT /api/v1/products/{id}/options
func (h *ProductHandler) UpdateOptions(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	revision, ok := expectedRevision(w, r)
	if !ok {
		return
	}

	limitBody(w, r)

	var req UpdateOptionsRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.UpdateOptions(r.Context(), id, revision, toDomainOptions(req.Options))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeProduct(w, http.StatusOK, product)
}

// UpdateVariant handles PATCH /api/v1/products/{id}/variants/{key}
func (h *ProductHandler) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	revision, ok := expectedRevision(w, r)
	if !ok {
		return
	}

	limitBody(w, r)

	var req UpdateVariantRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.UpdateVariantInput{
		ExpectedRevision: revision,
		SKU:              req.SKU,
		Title:            req.Title,
		Description:      req.Description,
		Price:            req.Price,
		CompareAtPrice:   req.CompareAtPrice,
		Stock:            req.Stock,
		MaxOrderQuantity: req.MaxOrderQuantity,
		MediaAssociation: req.MediaAssociation,
		ShippingOverride: req.ShippingOverride,
	}

	product, err := h.service.UpdateVariant(r.Context(), id, key, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeProduct(w, http.StatusOK, product)
}

// PublishProduct handles POST /api/v1/products/{id}/publish
func (h *ProductHandler) PublishProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	revision, ok := expectedRevision(w, r)
	if !ok {
		return
	}

	product, err := h.service.PublishProduct(r.Context(), id, revision)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeProduct(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseDocumentID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id, "status": "deleted"}})
}

func writeProduct(w http.ResponseWriter, status int, product *domain.Product) {
	setETag(w, product.Revision)
	httputil.WriteJSON(w, status, httputil.Response{Data: product})
}

func invalidParameter(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: message},
	})
}
