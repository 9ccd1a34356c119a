package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/breaker"
	apperrors "github.com/alleny0o/sr-laserworks-ecommerce/pkg/errors"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/logger"
)

// ProductSKUField is the field path of the product-level SKU.
const ProductSKUField = "sku"

var variantSKUField = regexp.MustCompile(`^variants\[(.+)\]\.sku$`)

// VariantSKUField returns the field path of a variant's SKU.
func VariantSKUField(variantKey string) string {
	return "variants[" + variantKey + "].sku"
}

// ParseSKUField returns the variant key named by a SKU field path, or "" for
// the product-level SKU.
func ParseSKUField(path string) (string, error) {
	if path == ProductSKUField {
		return "", nil
	}
	m := variantSKUField.FindStringSubmatch(path)
	if m == nil {
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown sku field %q", path))
	}
	return m[1], nil
}

// SKUReport is the result of checking every SKU of a document.
type SKUReport struct {
	DocumentID string                      `json:"document_id"`
	Valid      bool                        `json:"valid"`
	Fields     map[string]domain.SKUResult `json:"fields"`
}

// Messages returns the failing fields and their messages.
func (r *SKUReport) Messages() map[string]string {
	out := make(map[string]string)
	for path, res := range r.Fields {
		if !res.Valid {
			out[path] = res.Message
		}
	}
	return out
}

// SKUValidatorConfig tunes remote lookups.
type SKUValidatorConfig struct {
	LookupTimeout time.Duration
	Concurrency   int
}

// DefaultSKUValidatorConfig returns sensible defaults.
func DefaultSKUValidatorConfig() SKUValidatorConfig {
	return SKUValidatorConfig{
		LookupTimeout: 3 * time.Second,
		Concurrency:   8,
	}
}

// SKUValidator decides whether a SKU may be used by a product field.
type SKUValidator struct {
	repo    repository.ProductRepository
	querier repository.SKUQuerier
	breaker *breaker.Breaker[int64]
	group   singleflight.Group
	cfg     SKUValidatorConfig
	logger  *slog.Logger
}

// NewSKUValidator creates a new SKU validator.
func NewSKUValidator(
	repo repository.ProductRepository,
	querier repository.SKUQuerier,
	br *breaker.Breaker[int64],
	cfg SKUValidatorConfig,
	logger *slog.Logger,
) *SKUValidator {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultSKUValidatorConfig().LookupTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultSKUValidatorConfig().Concurrency
	}
	return &SKUValidator{
		repo:    repo,
		querier: querier,
		breaker: br,
		cfg:     cfg,
		logger:  logger,
	}
}

// Validate checks sku against the structural rules, the product's own SKUs
// and finally the rest of the catalog. The remote lookup only runs when the
// local checks pass. A failed lookup rejects the SKU.
func (v *SKUValidator) Validate(ctx context.Context, sku string, scope domain.SKUScope) domain.SKUResult {
	if rule, ok := domain.CheckSKUFormat(sku); !ok {
		recordSKUCheck(domain.SKUReasonFormat)
		return domain.SKUResult{Valid: false, Message: rule.Message, Reason: domain.SKUReasonFormat}
	}

	if domain.LocalSKUConflict(sku, scope) {
		recordSKUCheck(domain.SKUReasonDuplicate)
		return domain.SKUResult{Valid: false, Message: domain.MsgSKUInUse, Reason: domain.SKUReasonDuplicate}
	}

	count, err := v.countUsage(ctx, sku, scope.ProductID)
	if err != nil {
		level := slog.LevelError
		if ctx.Err() != nil {
			level = slog.LevelDebug
		}
		logger.WithContext(ctx, v.logger).Log(ctx, level, "sku uniqueness lookup failed",
			slog.String("reason", string(domain.SKUReasonLookupFailed)),
			slog.String("sku", sku),
			slog.String("product_id", scope.ProductID),
			slog.String("error", err.Error()),
		)
		recordSKUCheck(domain.SKUReasonLookupFailed)
		return domain.SKUResult{Valid: false, Message: domain.MsgSKULookupFailed, Reason: domain.SKUReasonLookupFailed}
	}

	if count > 0 {
		logger.WithContext(ctx, v.logger).InfoContext(ctx, "sku already in use",
			slog.String("reason", string(domain.SKUReasonDuplicate)),
			slog.String("sku", sku),
			slog.String("product_id", scope.ProductID),
			slog.Int64("other_products", count),
		)
		recordSKUCheck(domain.SKUReasonDuplicate)
		return domain.SKUResult{Valid: false, Message: domain.MsgSKUInUse, Reason: domain.SKUReasonDuplicate}
	}

	recordSKUCheck(domain.SKUReasonOK)
	return domain.SKUResult{Valid: true, Reason: domain.SKUReasonOK}
}

// ValidateField re-reads the document and checks sku for the field at path.
func (v *SKUValidator) ValidateField(ctx context.Context, documentID, path, sku string) (domain.SKUResult, error) {
	variantKey, err := ParseSKUField(path)
	if err != nil {
		return domain.SKUResult{}, err
	}

	p, err := v.repo.GetByID(ctx, documentID)
	if err != nil {
		return domain.SKUResult{}, fmt.Errorf("get product for sku check: %w", err)
	}

	if variantKey != "" {
		if _, ok := domain.FindVariant(p.Variants, variantKey); !ok {
			return domain.SKUResult{}, apperrors.NotFound("variant", variantKey)
		}
	}

	return v.Validate(ctx, sku, p.SKUScope(variantKey)), nil
}

// ValidateDocument checks the product SKU and every variant SKU
// concurrently. The product SKU is optional once the product has variants.
func (v *SKUValidator) ValidateDocument(ctx context.Context, documentID string) (*SKUReport, error) {
	p, err := v.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get product for sku report: %w", err)
	}

	type field struct {
		path string
		sku  string
		key  string
	}
	var fields []field
	if p.SKU != "" || len(p.Variants) == 0 {
		fields = append(fields, field{path: ProductSKUField, sku: p.SKU})
	}
	for _, variant := range p.Variants {
		fields = append(fields, field{path: VariantSKUField(variant.Key), sku: variant.SKU, key: variant.Key})
	}

	results := make([]domain.SKUResult, len(fields))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.Concurrency)
	for i, f := range fields {
		g.Go(func() error {
			results[i] = v.Validate(gctx, f.sku, p.SKUScope(f.key))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &SKUReport{DocumentID: p.ID, Valid: true, Fields: make(map[string]domain.SKUResult, len(fields))}
	for i, f := range fields {
		report.Fields[f.path] = results[i]
		if !results[i].Valid {
			report.Valid = false
		}
	}
	return report, nil
}

// countUsage runs the remote lookup. Identical concurrent lookups share one
// query, which runs detached from any single caller so that one caller
// giving up does not fail the others.
func (v *SKUValidator) countUsage(ctx context.Context, sku, productID string) (int64, error) {
	key := productID + "\x00" + sku
	ch := v.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.cfg.LookupTimeout)
		defer cancel()

		start := time.Now()
		defer func() { skuLookupDuration.Observe(time.Since(start).Seconds()) }()

		if v.breaker == nil {
			return v.querier.CountSKUUsage(lookupCtx, sku, productID)
		}
		return v.breaker.Execute(lookupCtx, func(ctx context.Context) (int64, error) {
			return v.querier.CountSKUUsage(ctx, sku, productID)
		})
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int64), nil
	}
}
