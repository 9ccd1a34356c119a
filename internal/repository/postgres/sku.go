package postgres

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/database"
)

// countSKUUsageSQL counts other products, draft and published copies
// together, that use the SKU at product or variant level.
const countSKUUsageSQL = `
	SELECT count(DISTINCT published_id)
	FROM products
	WHERE published_id <> $2
	  AND (sku = $1 OR variants @> jsonb_build_array(jsonb_build_object('sku', $1::text)))`

// SKURepository implements repository.SKUQuerier.
type SKURepository struct {
	db database.DBTX
}

// NewSKURepository creates a new PostgreSQL-backed SKU querier.
func NewSKURepository(db database.DBTX) *SKURepository {
	return &SKURepository{db: db}
}

// CountSKUUsage counts products other than productID that use sku. The SKU
// is always bound as a parameter.
func (r *SKURepository) CountSKUUsage(ctx context.Context, sku, productID string) (count int64, err error) {
	ctx, end := database.TraceQuery(ctx, "CountSKUUsage", countSKUUsageSQL, attribute.String("document.id", productID))
	defer func() { end(err) }()

	if err := r.db.QueryRow(ctx, countSKUUsageSQL, sku, domain.PublishedID(productID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sku usage: %w", err)
	}
	return count, nil
}
