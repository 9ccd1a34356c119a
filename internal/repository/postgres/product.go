package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/database"
	apperrors "github.com/alleny0o/sr-laserworks-ecommerce/pkg/errors"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/pagination"
)

const productColumns = `id, name, slug, description, sku, price, compare_at_price, options, variants, shipping, status, revision, published_at, created_at, updated_at`

const (
	insertProductSQL = `
		INSERT INTO products (id, published_id, name, slug, description, sku, price, compare_at_price,
		                      options, variants, shipping, status, revision, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	selectProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	selectProductForUpdateSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	updateProductSQL = `
		UPDATE products
		SET name = $1, slug = $2, description = $3, sku = $4, price = $5, compare_at_price = $6,
		    options = $7, variants = $8, shipping = $9, status = $10, revision = $11, updated_at = $12
		WHERE id = $13`

	upsertPublishedSQL = insertProductSQL + `
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, slug = EXCLUDED.slug, description = EXCLUDED.description,
		    sku = EXCLUDED.sku, price = EXCLUDED.price, compare_at_price = EXCLUDED.compare_at_price,
		    options = EXCLUDED.options, variants = EXCLUDED.variants, shipping = EXCLUDED.shipping,
		    status = EXCLUDED.status, revision = EXCLUDED.revision, published_at = EXCLUDED.published_at,
		    updated_at = EXCLUDED.updated_at`

	releaseSKUsSQL = `DELETE FROM sku_registry WHERE product_id = $1`

	claimSKUSQL = `INSERT INTO sku_registry (sku, product_id, variant_key, claimed_at) VALUES ($1, $2, $3, $4)`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
// Options, variants and shipping are stored as JSONB documents.
type ProductRepository struct {
	db  database.DBTX
	now func() time.Time
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new product document.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateProduct", insertProductSQL, attribute.String("document.id", p.ID))
	defer func() { end(err) }()

	doc, err := encodeDocument(p)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, insertProductSQL,
		p.ID,
		p.PublishedID(),
		p.Name,
		p.Slug,
		p.Description,
		p.SKU,
		p.Price,
		p.CompareAtPrice,
		doc.options,
		doc.variants,
		doc.shipping,
		p.Status,
		p.Revision,
		p.PublishedAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a document by its draft or published id.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "GetProduct", selectProductSQL, attribute.String("document.id", id))
	defer func() { end(err) }()

	return scanProduct(r.db.QueryRow(ctx, selectProductSQL, id), id)
}

// List returns documents matching the given filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (products []domain.Product, total int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.Drafts != nil {
		if *filter.Drafts {
			conditions = append(conditions, "id <> published_id")
		} else {
			conditions = append(conditions, "id = published_id")
		}
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY updated_at DESC
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, argIndex, argIndex+1,
	)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	page := pagination.Params{Page: filter.Page, PerPage: filter.PerPage}.Clamp()
	limit, offset := page.PerPage, page.Offset()
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw rawDocument
		dest := append(raw.dest(), &total)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		p, err := raw.decode()
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, total, nil
}

// Patch locks the document row, applies mutations in order and writes the
// result back with the next revision. Either every mutation lands or none.
func (r *ProductRepository) Patch(ctx context.Context, id string, expectedRevision int64, mutations ...domain.Mutation) (result *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "PatchProduct", updateProductSQL,
		attribute.String("document.id", id),
		attribute.Int("mutation.count", len(mutations)),
	)
	defer func() { end(err) }()

	err = database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		p, err := r.lock(ctx, tx, id, expectedRevision)
		if err != nil {
			return err
		}

		if err := domain.ApplyAll(p, mutations...); err != nil {
			return err
		}

		p.Revision++
		p.UpdatedAt = r.now()

		doc, err := encodeDocument(p)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, updateProductSQL,
			p.Name,
			p.Slug,
			p.Description,
			p.SKU,
			p.Price,
			p.CompareAtPrice,
			doc.options,
			doc.variants,
			doc.shipping,
			p.Status,
			p.Revision,
			p.UpdatedAt,
			p.ID,
		)
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}

		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Publish writes the document over its published copy and claims every SKU
// it uses in sku_registry. A SKU already claimed by another product rejects
// the whole publish.
func (r *ProductRepository) Publish(ctx context.Context, id string, expectedRevision int64) (result *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "PublishProduct", upsertPublishedSQL, attribute.String("document.id", id))
	defer func() { end(err) }()

	err = database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		src, err := r.lock(ctx, tx, id, expectedRevision)
		if err != nil {
			return err
		}

		now := r.now()
		p := *src
		p.ID = src.PublishedID()
		p.Status = domain.ProductStatusPublished
		p.Revision = src.Revision + 1
		p.PublishedAt = &now
		p.UpdatedAt = now

		doc, err := encodeDocument(&p)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, upsertPublishedSQL,
			p.ID,
			p.ID,
			p.Name,
			p.Slug,
			p.Description,
			p.SKU,
			p.Price,
			p.CompareAtPrice,
			doc.options,
			doc.variants,
			doc.shipping,
			p.Status,
			p.Revision,
			p.PublishedAt,
			p.CreatedAt,
			p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert published product: %w", err)
		}

		if err := claimSKUs(ctx, tx, &p, now); err != nil {
			return err
		}

		if src.IsDraft() {
			if _, err := tx.Exec(ctx, deleteProductSQL, src.ID); err != nil {
				return fmt.Errorf("delete draft: %w", err)
			}
		}

		result = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a document. Deleting a published document releases its SKUs.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteProduct", deleteProductSQL, attribute.String("document.id", id))
	defer func() { end(err) }()

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, deleteProductSQL, id)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFound("product", id)
		}

		if !domain.IsDraftID(id) {
			if _, err := tx.Exec(ctx, releaseSKUsSQL, id); err != nil {
				return fmt.Errorf("release skus: %w", err)
			}
		}
		return nil
	})
}

// lock selects the document row FOR UPDATE and checks its revision.
func (r *ProductRepository) lock(ctx context.Context, tx pgx.Tx, id string, expectedRevision int64) (*domain.Product, error) {
	p, err := scanProduct(tx.QueryRow(ctx, selectProductForUpdateSQL, id), id)
	if err != nil {
		return nil, err
	}
	if expectedRevision != 0 && p.Revision != expectedRevision {
		return nil, apperrors.Conflict("REVISION_MISMATCH",
			fmt.Sprintf("document %s is at revision %d, expected %d", id, p.Revision, expectedRevision))
	}
	return p, nil
}

func claimSKUs(ctx context.Context, tx pgx.Tx, p *domain.Product, now time.Time) error {
	if _, err := tx.Exec(ctx, releaseSKUsSQL, p.ID); err != nil {
		return fmt.Errorf("release skus: %w", err)
	}

	claim := func(sku string, variantKey *string) error {
		if _, err := tx.Exec(ctx, claimSKUSQL, sku, p.ID, variantKey, now); err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.AlreadyExists("product", "sku", sku)
			}
			return fmt.Errorf("claim sku %s: %w", sku, err)
		}
		return nil
	}

	if p.SKU != "" {
		if err := claim(p.SKU, nil); err != nil {
			return err
		}
	}
	for _, v := range p.Variants {
		if v.SKU == "" {
			continue
		}
		key := v.Key
		if err := claim(v.SKU, &key); err != nil {
			return err
		}
	}
	return nil
}

type encodedDocument struct {
	options  []byte
	variants []byte
	shipping []byte
}

func encodeDocument(p *domain.Product) (encodedDocument, error) {
	var (
		doc encodedDocument
		err error
	)

	options := p.Options
	if options == nil {
		options = []domain.Option{}
	}
	if doc.options, err = json.Marshal(options); err != nil {
		return doc, fmt.Errorf("marshal options: %w", err)
	}

	variants := p.Variants
	if variants == nil {
		variants = []domain.Variant{}
	}
	if doc.variants, err = json.Marshal(variants); err != nil {
		return doc, fmt.Errorf("marshal variants: %w", err)
	}

	if p.Shipping != nil {
		if doc.shipping, err = json.Marshal(p.Shipping); err != nil {
			return doc, fmt.Errorf("marshal shipping: %w", err)
		}
	}
	return doc, nil
}

// rawDocument holds one scanned row before the JSONB columns are decoded.
type rawDocument struct {
	p        domain.Product
	options  []byte
	variants []byte
	shipping []byte
}

func (d *rawDocument) dest() []any {
	return []any{
		&d.p.ID,
		&d.p.Name,
		&d.p.Slug,
		&d.p.Description,
		&d.p.SKU,
		&d.p.Price,
		&d.p.CompareAtPrice,
		&d.options,
		&d.variants,
		&d.shipping,
		&d.p.Status,
		&d.p.Revision,
		&d.p.PublishedAt,
		&d.p.CreatedAt,
		&d.p.UpdatedAt,
	}
}

func (d *rawDocument) decode() (*domain.Product, error) {
	p := d.p
	p.Options = []domain.Option{}
	p.Variants = []domain.Variant{}

	if len(d.options) > 0 {
		if err := json.Unmarshal(d.options, &p.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
	}
	if len(d.variants) > 0 {
		if err := json.Unmarshal(d.variants, &p.Variants); err != nil {
			return nil, fmt.Errorf("unmarshal variants: %w", err)
		}
	}
	if len(d.shipping) > 0 {
		p.Shipping = &domain.ShippingInfo{}
		if err := json.Unmarshal(d.shipping, p.Shipping); err != nil {
			return nil, fmt.Errorf("unmarshal shipping: %w", err)
		}
	}
	return &p, nil
}

func scanProduct(row pgx.Row, id string) (*domain.Product, error) {
	var raw rawDocument
	if err := row.Scan(raw.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return raw.decode()
}
