package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/database"
	apperrors "github.com/alleny0o/sr-laserworks-ecommerce/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func newTestRepo(mock pgxmock.PgxPoolIface) *ProductRepository {
	repo := NewProductRepository(mock)
	repo.now = func() time.Time { return now }
	return repo
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

const (
	publishedID = "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"
	draftID     = "drafts." + publishedID
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var columns = []string{
	"id", "name", "slug", "description", "sku", "price", "compare_at_price",
	"options", "variants", "shipping", "status", "revision", "published_at",
	"created_at", "updated_at",
}

var columnsWithCount = append(append([]string{}, columns...), "total_count")

func sampleProduct() domain.Product {
	return domain.Product{
		ID:          draftID,
		Name:        "Walnut Sign",
		Slug:        "walnut-sign",
		Description: "Laser engraved walnut sign",
		SKU:         "WALNUT",
		Price:       4500,
		Options: []domain.Option{{
			Key: "opt1", Name: "Size", DisplayFormat: domain.DisplayButtons,
			Values: []domain.OptionValue{
				{Key: "v1", Kind: domain.ValueKindPlain, Value: "S"},
				{Key: "v2", Kind: domain.ValueKindPlain, Value: "L"},
			},
		}},
		Variants: []domain.Variant{
			{Key: "Size:S+" + publishedID, Name: "Size: S", Options: []domain.SelectedOption{{Name: "Size", Value: "S"}}, SKU: "WALNUT-S"},
			{Key: "Size:L+" + publishedID, Name: "Size: L", Options: []domain.SelectedOption{{Name: "Size", Value: "L"}}},
		},
		Shipping:  domain.NewShippingInfo(350),
		Status:    domain.ProductStatusDraft,
		Revision:  3,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func productRow(p domain.Product) []any {
	opts, _ := json.Marshal(p.Options)
	vars, _ := json.Marshal(p.Variants)
	var ship []byte
	if p.Shipping != nil {
		ship, _ = json.Marshal(p.Shipping)
	}
	return []any{
		p.ID, p.Name, p.Slug, p.Description, p.SKU, p.Price, p.CompareAtPrice,
		opts, vars, ship, p.Status, p.Revision, p.PublishedAt,
		p.CreatedAt, p.UpdatedAt,
	}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

// ─────────────────────────────────────────────────────────────────────────────
// Create / Get / List / Delete
// ─────────────────────────────────────────────────────────────────────────────

func TestProductRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	p := sampleProduct()
	row := productRow(p)

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, publishedID, p.Name, p.Slug, p.Description, p.SKU, p.Price, p.CompareAtPrice,
			row[7], row[8], row[9], p.Status, p.Revision, p.PublishedAt, p.CreatedAt, p.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), &p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create_NilListsStoredAsEmptyArrays(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	p := domain.Product{ID: draftID, Name: "Blank", Status: domain.ProductStatusDraft, Revision: 1}

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, publishedID, p.Name, "", "", "", int64(0), p.CompareAtPrice,
			[]byte("[]"), []byte("[]"), []byte(nil), p.Status, int64(1), p.PublishedAt, p.CreatedAt, p.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), &p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create_UniqueViolation(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	p := sampleProduct()
	mock.ExpectExec("INSERT INTO products").
		WithArgs(anyArgs(16)...).
		WillReturnError(uniqueViolation())

	err := repo.Create(context.Background(), &p)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	p := sampleProduct()
	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(productRow(p)...))

	result, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, result.ID)
	assert.Equal(t, p.SKU, result.SKU)
	assert.Equal(t, p.Options, result.Options)
	assert.Equal(t, p.Variants, result.Variants)
	assert.Equal(t, p.Shipping, result.Shipping)
	assert.Equal(t, int64(3), result.Revision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.GetByID(context.Background(), "missing-id")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	p := sampleProduct()
	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(columnsWithCount).AddRow(append(productRow(p), 1)...))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Len(t, products[0].Variants, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_WithFilters(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	mock.ExpectQuery(`status = \$1 AND \(name ILIKE \$2 OR sku ILIKE \$2\) AND id <> published_id`).
		WithArgs(domain.ProductStatusDraft, "%walnut%", 10, 10).
		WillReturnRows(pgxmock.NewRows(columnsWithCount))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{
		Status:  strPtr(domain.ProductStatusDraft),
		Search:  strPtr("walnut"),
		Drafts:  boolPtr(true),
		Page:    2,
		PerPage: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_DraftKeepsRegistry(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM products WHERE id").
		WithArgs(draftID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), draftID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_PublishedReleasesSKUs(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM products WHERE id").
		WithArgs(publishedID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM sku_registry WHERE product_id").
		WithArgs(publishedID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), publishedID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM products WHERE id").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─────────────────────────────────────────────────────────────────────────────
// Patch
// ─────────────────────────────────────────────────────────────────────────────

func TestProductRepository_Patch_RegenerateIsOneTransaction(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	p := sampleProduct()
	generated := domain.GenerateVariants(p.ID, p.Options)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM products WHERE id = \\$1 FOR UPDATE").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(productRow(p)...))
	mock.ExpectExec("UPDATE products").
		WithArgs(
			p.Name, p.Slug, p.Description, p.SKU, p.Price, p.CompareAtPrice,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			p.Status, int64(4), now, p.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	result, err := repo.Patch(context.Background(), p.ID, 3, domain.RegenerateVariants(generated)...)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.Revision)
	assert.Equal(t, now, result.UpdatedAt)
	require.Len(t, result.Variants, 2)
	assert.Empty(t, result.Variants[0].SKU, "regeneration discards per-variant edits")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Patch_RevisionMismatch(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	p := sampleProduct()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(productRow(p)...))
	mock.ExpectRollback()

	_, err := repo.Patch(context.Background(), p.ID, 2, domain.ClearVariants()...)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "REVISION_MISMATCH", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Patch_MutationFailureRollsBack(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	p := sampleProduct()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(productRow(p)...))
	mock.ExpectRollback()

	_, err := repo.Patch(context.Background(), p.ID, 0, domain.ReplaceVariant(domain.Variant{Key: "nope"}))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Patch_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Patch(context.Background(), "missing", 0, domain.ClearVariants()...)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─────────────────────────────────────────────────────────────────────────────
// Publish
// ─────────────────────────────────────────────────────────────────────────────

func TestProductRepository_Publish_Draft(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	p := sampleProduct()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(draftID).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(productRow(p)...))
	mock.ExpectExec("INSERT INTO products .+ ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs(
			publishedID, publishedID, p.Name, p.Slug, p.Description, p.SKU, p.Price, p.CompareAtPrice,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			domain.ProductStatusPublished, int64(4), pgxmock.AnyArg(), p.CreatedAt, now,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM sku_registry").
		WithArgs(publishedID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO sku_registry").
		WithArgs("WALNUT", publishedID, (*string)(nil), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO sku_registry").
		WithArgs("WALNUT-S", publishedID, strPtr("Size:S+"+publishedID), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM products WHERE id").
		WithArgs(draftID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	result, err := repo.Publish(context.Background(), draftID, 0)
	require.NoError(t, err)
	assert.Equal(t, publishedID, result.ID)
	assert.Equal(t, domain.ProductStatusPublished, result.Status)
	require.NotNil(t, result.PublishedAt)
	assert.Equal(t, now, *result.PublishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// anyArgs matches n statement arguments of any value.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestProductRepository_Publish_SKUTakenRejects(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := newTestRepo(mock)

	p := sampleProduct()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(draftID).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(productRow(p)...))
	mock.ExpectExec("INSERT INTO products").
		WithArgs(anyArgs(16)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM sku_registry").
		WithArgs(publishedID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO sku_registry").
		WithArgs("WALNUT", publishedID, (*string)(nil), now).
		WillReturnError(uniqueViolation())
	mock.ExpectRollback()

	_, err := repo.Publish(context.Background(), draftID, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "WALNUT")
	assert.NoError(t, mock.ExpectationsWereMet())
}
