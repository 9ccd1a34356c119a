package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/event"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
	apperrors "github.com/alleny0o/sr-laserworks-ecommerce/pkg/errors"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/pagination"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/slug"
)

// ProductService implements the business logic for product documents.
type ProductService struct {
	repo      repository.ProductRepository
	validator *SKUValidator
	producer  *event.Producer
	logger    *slog.Logger
	now       func() time.Time
}

// NewProductService creates a new product service.
func NewProductService(
	repo repository.ProductRepository,
	validator *SKUValidator,
	producer *event.Producer,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		repo:      repo,
		validator: validator,
		producer:  producer,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name           string
	Description    string
	SKU            string
	Price          int64
	CompareAtPrice *int64
	Shipping       *domain.ShippingInfo
	Options        []domain.Option
}

// UpdateProductInput holds the parameters for updating a product.
// ExpectedRevision of zero skips the concurrency check.
type UpdateProductInput struct {
	ExpectedRevision int64
	Name             *string
	Description      *string
	SKU              *string
	Price            *int64
	CompareAtPrice   *int64
	Shipping         *domain.ShippingInfo
	Status           *string
}

// UpdateVariantInput holds the editable fields of one variant.
type UpdateVariantInput struct {
	ExpectedRevision int64
	SKU              *string
	Title            *string
	Description      *string
	Price            *int64
	CompareAtPrice   *int64
	Stock            *int
	MaxOrderQuantity *int
	MediaAssociation *string
	ShippingOverride *domain.ShippingInfo
}

// CreateProduct creates a new draft product.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}

	now := s.now().UTC()
	product := &domain.Product{
		ID:             domain.DraftID(uuid.New().String()),
		Name:           input.Name,
		Slug:           slug.Generate(input.Name),
		Description:    input.Description,
		SKU:            input.SKU,
		Price:          input.Price,
		CompareAtPrice: input.CompareAtPrice,
		Shipping:       input.Shipping,
		Options:        input.Options,
		Variants:       []domain.Variant{},
		Status:         domain.ProductStatusDraft,
		Revision:       1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if product.Options == nil {
		product.Options = []domain.Option{}
	}
	domain.NormalizeOptions(product.Options)

	errs := domain.ValidateOptions(product.Options)
	errs.Merge(domain.ValidateProductFields(product))
	errs.Merge(productSKUFormat(product.SKU))
	if len(errs) > 0 {
		return nil, apperrors.ValidationFailed(errs)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// GetProduct retrieves a product document by its draft or published id.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// ListProducts returns a filtered, paginated list of product documents.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	page := pagination.Params{Page: filter.Page, PerPage: filter.PerPage}.Clamp()
	filter.Page, filter.PerPage = page.Page, page.PerPage

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// UpdateProduct applies partial updates to the top-level product fields.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	fields := domain.ProductFields{
		Name:           input.Name,
		Description:    input.Description,
		SKU:            input.SKU,
		Price:          input.Price,
		CompareAtPrice: input.CompareAtPrice,
		Shipping:       input.Shipping,
		Status:         input.Status,
	}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.InvalidInput("product name must not be empty")
		}
		sl := slug.Generate(*input.Name)
		fields.Slug = &sl
	}

	preview := *current
	if err := domain.SetFields(fields).Apply(&preview); err != nil {
		return nil, err
	}
	errs := domain.ValidateProductFields(&preview)
	if input.SKU != nil {
		errs.Merge(productSKUFormat(*input.SKU))
	}
	if len(errs) > 0 {
		return nil, apperrors.ValidationFailed(errs)
	}

	product, err := s.repo.Patch(ctx, id, expected(input.ExpectedRevision, current), domain.SetFields(fields))
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
		slog.Int64("revision", product.Revision),
	)

	return product, nil
}

// UpdateOptions replaces the product's option list after validating it
// against the option schema. Existing variants are left untouched.
func (s *ProductService) UpdateOptions(ctx context.Context, id string, expectedRevision int64, options []domain.Option) (*domain.Product, error) {
	if options == nil {
		options = []domain.Option{}
	}
	domain.NormalizeOptions(options)

	if errs := domain.ValidateOptions(options); len(errs) > 0 {
		return nil, apperrors.ValidationFailed(errs)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for options update: %w", err)
	}

	product, err := s.repo.Patch(ctx, id, expected(expectedRevision, current), domain.SetOptions(options))
	if err != nil {
		return nil, fmt.Errorf("update options: %w", err)
	}

	if err := s.producer.PublishOptionsUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.options_updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product options updated",
		slog.String("product_id", product.ID),
		slog.Int("option_count", len(options)),
	)

	return product, nil
}

// UpdateVariant edits one variant identified by its key. The key, name and
// selected options stay as generated.
func (s *ProductService) UpdateVariant(ctx context.Context, id, key string, input *UpdateVariantInput) (*domain.Product, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for variant update: %w", err)
	}

	idx, ok := domain.FindVariant(current.Variants, key)
	if !ok {
		return nil, apperrors.NotFound("variant", key)
	}

	variant := current.Variants[idx]
	if input.SKU != nil {
		variant.SKU = *input.SKU
	}
	if input.Title != nil {
		variant.Title = input.Title
	}
	if input.Description != nil {
		variant.Description = input.Description
	}
	if input.Price != nil {
		variant.Price = input.Price
	}
	if input.CompareAtPrice != nil {
		variant.CompareAtPrice = input.CompareAtPrice
	}
	if input.Stock != nil {
		variant.Stock = *input.Stock
	}
	if input.MaxOrderQuantity != nil {
		variant.MaxOrderQuantity = *input.MaxOrderQuantity
	}
	if input.MediaAssociation != nil {
		variant.MediaAssociation = input.MediaAssociation
	}
	if input.ShippingOverride != nil {
		variant.ShippingOverride = input.ShippingOverride
	}

	path := variantPath(key)
	errs := domain.ValidateVariantFields(path, &variant)
	if input.SKU != nil {
		if rule, ok := domain.CheckSKUFormat(variant.SKU); !ok {
			errs[path+".sku"] = rule.Message
		}
	}
	if len(errs) > 0 {
		return nil, apperrors.ValidationFailed(errs)
	}

	product, err := s.repo.Patch(ctx, id, expected(input.ExpectedRevision, current), domain.ReplaceVariant(variant))
	if err != nil {
		return nil, fmt.Errorf("update variant: %w", err)
	}

	if err := s.producer.PublishVariantUpdated(ctx, product, key); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.variant_updated event",
			slog.String("product_id", product.ID),
			slog.String("variant_key", key),
			slog.String("error", err.Error()),
		)
	}

	return product, nil
}

// PublishProduct validates the whole document, including every SKU against
// the catalog, and publishes it.
func (s *ProductService) PublishProduct(ctx context.Context, id string, expectedRevision int64) (*domain.Product, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for publish: %w", err)
	}

	errs := domain.ValidateOptions(current.Options)
	errs.Merge(domain.ValidateProductFields(current))
	for i := range current.Variants {
		v := &current.Variants[i]
		errs.Merge(domain.ValidateVariantForPublish(variantPath(v.Key), v))
	}

	report, err := s.validator.ValidateDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("validate skus: %w", err)
	}
	for path, msg := range report.Messages() {
		errs[path] = msg
	}
	if len(errs) > 0 {
		s.logger.InfoContext(ctx, "product publish rejected",
			slog.String("product_id", id),
			slog.Int("errors", len(errs)),
		)
		return nil, apperrors.ValidationFailed(errs)
	}

	product, err := s.repo.Publish(ctx, id, expected(expectedRevision, current))
	if err != nil {
		return nil, fmt.Errorf("publish product: %w", err)
	}

	if err := s.producer.PublishProductPublished(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.published event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product published",
		slog.String("product_id", product.ID),
		slog.Int("variant_count", len(product.Variants)),
	)

	return product, nil
}

// DeleteProduct removes a product document by its id.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	// Verify the product exists before deleting.
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("get product for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
	)

	return nil
}

// productSKUFormat checks a product-level SKU. Unlike variant SKUs it may be
// left empty.
func productSKUFormat(sku string) domain.FieldErrors {
	errs := domain.FieldErrors{}
	if sku == "" {
		return errs
	}
	if rule, ok := domain.CheckSKUFormat(sku); !ok {
		errs[ProductSKUField] = rule.Message
	}
	return errs
}

func variantPath(key string) string {
	return "variants[" + key + "]"
}

// expected pins a patch to the revision the caller saw, or to the revision
// the service read when the caller sent none.
func expected(revision int64, current *domain.Product) int64 {
	if revision != 0 {
		return revision
	}
	return current.Revision
}
