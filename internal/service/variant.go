package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/event"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
)

// VariantService generates and clears a product's variant list.
type VariantService struct {
	repo     repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewVariantService creates a new variant service.
func NewVariantService(repo repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *VariantService {
	return &VariantService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// Preview returns the variants Generate would write, without writing them.
func (s *VariantService) Preview(ctx context.Context, id string) ([]domain.Variant, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for variant preview: %w", err)
	}
	return domain.GenerateVariants(product.PublishedID(), product.Options), nil
}

// Generate replaces the product's variants with one variant per combination
// of its option values. Edits made to previous variants are discarded.
func (s *VariantService) Generate(ctx context.Context, id string, expectedRevision int64) (*domain.Product, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for variant generation: %w", err)
	}

	variants := domain.GenerateVariants(current.PublishedID(), current.Options)

	product, err := s.repo.Patch(ctx, id, expected(expectedRevision, current), domain.RegenerateVariants(variants)...)
	if err != nil {
		s.logger.ErrorContext(ctx, "variant generation failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("generate variants: %w", err)
	}

	if err := s.producer.PublishVariantsGenerated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.variants_generated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "variants generated",
		slog.String("product_id", product.ID),
		slog.Int("variant_count", len(product.Variants)),
		slog.Int64("revision", product.Revision),
	)

	return product, nil
}

// Clear removes every variant of the product.
func (s *VariantService) Clear(ctx context.Context, id string, expectedRevision int64) (*domain.Product, error) {
	product, err := s.repo.Patch(ctx, id, expectedRevision, domain.ClearVariants()...)
	if err != nil {
		s.logger.ErrorContext(ctx, "variant clear failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("clear variants: %w", err)
	}

	if err := s.producer.PublishVariantsCleared(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.variants_cleared event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "variants cleared",
		slog.String("product_id", product.ID),
		slog.Int64("revision", product.Revision),
	)

	return product, nil
}
