package repository

import (
	"context"
	"time"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	Status  *string
	Search  *string
	Drafts  *bool
	Page    int
	PerPage int
}

// ProductRepository stores product documents.
type ProductRepository interface {
	// Create inserts a new product document.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a document by its draft or published id.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns documents matching the given filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Patch applies mutations to the document in one transaction and bumps
	// its revision. A non-zero expectedRevision must match the stored one.
	Patch(ctx context.Context, id string, expectedRevision int64, mutations ...domain.Mutation) (*domain.Product, error)

	// Publish copies a draft over its published document, claims every SKU
	// it uses and deletes the draft, all in one transaction.
	Publish(ctx context.Context, id string, expectedRevision int64) (*domain.Product, error)

	// Delete removes a document by its id.
	Delete(ctx context.Context, id string) error
}

// SKUQuerier answers SKU usage questions across the catalog.
type SKUQuerier interface {
	// CountSKUUsage counts products, other than productID's draft and
	// published copies, whose own SKU or any variant SKU equals sku.
	CountSKUUsage(ctx context.Context, sku, productID string) (int64, error)
}

// FieldRef identifies one editable SKU field of one document.
type FieldRef struct {
	DocumentID string
	FieldPath  string
}

// FieldCheck is the latest committed check result for a field.
type FieldCheck struct {
	FieldPath string           `json:"field_path"`
	Seq       int64            `json:"seq"`
	SKU       string           `json:"sku"`
	Result    domain.SKUResult `json:"result"`
	CheckedAt time.Time        `json:"checked_at"`
}

// FieldStateStore orders checks per field so that only the latest edit's
// result is kept.
type FieldStateStore interface {
	// Next allocates the sequence number of a new check for the field.
	Next(ctx context.Context, ref FieldRef) (int64, error)

	// Commit stores check as the field's state if check.Seq is still the
	// latest sequence. It reports whether the check was stored.
	Commit(ctx context.Context, ref FieldRef, check FieldCheck) (bool, error)

	// List returns the committed state of every field of a document.
	List(ctx context.Context, documentID string) ([]FieldCheck, error)
}
