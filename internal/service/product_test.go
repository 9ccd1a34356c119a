package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/event"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
	apperrors "github.com/alleny0o/sr-laserworks-ecommerce/pkg/errors"
)

func TestCreateProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc, pub := newTestService(repo, unusedSKUs())

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	product, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:    "Walnut Sign",
		SKU:     "WALNUT",
		Price:   2500,
		Options: sizeColorOptions(),
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(product.ID, domain.DraftPrefix))
	assert.Equal(t, "walnut-sign", product.Slug)
	assert.Equal(t, domain.ProductStatusDraft, product.Status)
	assert.Equal(t, int64(1), product.Revision)
	assert.NotNil(t, product.Variants)
	assert.Equal(t, []string{event.TopicProductCreated}, pub.Topics())
	repo.AssertExpectations(t)
}

func TestCreateProduct_EmptyName(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestService(repo, unusedSKUs())

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{Name: "  "})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_InvalidOptionsAndSKU(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestService(repo, unusedSKUs())

	options := append(sizeColorOptions(), sizeColorOptions()...)
	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:    "Walnut Sign",
		SKU:     "AB CD",
		Options: options,
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Equal(t, domain.MsgTooManyOptions, appErr.Fields["options"])
	assert.Equal(t, domain.MsgSKUFormat, appErr.Fields["sku"])
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestService(repo, unusedSKUs())

	repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("product", "missing"))

	_, err := svc.GetProduct(context.Background(), "missing")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestListProducts_ClampsPaging(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestService(repo, unusedSKUs())

	repo.On("List", mock.Anything, repository.ProductFilter{Page: 1, PerPage: 100}).
		Return([]domain.Product{{ID: "p1"}}, 1, nil)

	products, total, err := svc.ListProducts(context.Background(), repository.ProductFilter{PerPage: 500})

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, total)
	repo.AssertExpectations(t)
}

func TestUpdateProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc, pub := newTestService(repo, unusedSKUs())
	doc := draftWithVariants()

	repo.On("GetByID", mock.Anything, "drafts.p1").Return(doc, nil)
	repo.On("Patch", mock.Anything, "drafts.p1", int64(3), mock.Anything).Run(applyPatch(doc)).Return(doc, nil)

	product, err := svc.UpdateProduct(context.Background(), "drafts.p1", &UpdateProductInput{
		Name:  strPtr("Oak Sign"),
		Price: int64Ptr(3000),
	})

	require.NoError(t, err)
	assert.Equal(t, "Oak Sign", product.Name)
	assert.Equal(t, "oak-sign", product.Slug)
	assert.Equal(t, int64(3000), product.Price)
	assert.Equal(t, int64(4), product.Revision)
	assert.Equal(t, []string{event.TopicProductUpdated}, pub.Topics())
}

func TestUpdateProduct_CompareAtPriceMustExceedPrice(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestService(repo, unusedSKUs())

	repo.On("GetByID", mock.Anything, "drafts.p1").Return(draftWithVariants(), nil)

	_, err := svc.UpdateProduct(context.Background(), "drafts.p1", &UpdateProductInput{
		CompareAtPrice: int64Ptr(2000),
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.MsgMustExceedPrice, appErr.Fields["compare_at_price"])
	repo.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProduct_InvalidStatus(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestService(repo, unusedSKUs())

	repo.On("GetByID", mock.Anything, "drafts.p1").Return(draftWithVariants(), nil)

	_, err := svc.UpdateProduct(context.Background(), "drafts.p1", &UpdateProductInput{
		Status: strPtr("gone"),
	})

	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestUpdateOptions_RejectsSchemaViolations(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestService(repo, unusedSKUs())

	options := sizeColorOptions()
	options[1].Name = "Size"

	_, err := svc.UpdateOptions(context.Background(), "drafts.p1", 3, options)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Option Names must be unique. Duplicates: Size.", appErr.Fields["options"])
	repo.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOptions_NormalizesAndPatches(t *testing.T) {
	repo := new(mockProductRepository)
	svc, pub := newTestService(repo, unusedSKUs())
	doc := draftWithVariants()

	repo.On("GetByID", mock.Anything, "drafts.p1").Return(doc, nil)
	repo.On("Patch", mock.Anything, "drafts.p1", int64(3), mock.Anything).Run(applyPatch(doc)).Return(doc, nil)

	product, err := svc.UpdateOptions(context.Background(), "drafts.p1", 3, []domain.Option{
		{Name: "Finish", DisplayFormat: domain.DisplayDropdown, Values: []domain.OptionValue{{Value: "Matte"}}},
	})

	require.NoError(t, err)
	require.Len(t, product.Options, 1)
	assert.NotEmpty(t, product.Options[0].Key)
	assert.Equal(t, domain.ValueKindPlain, product.Options[0].Values[0].Kind)
	assert.Len(t, product.Variants, 2, "variants are untouched until regenerated")
	assert.Equal(t, []string{event.TopicOptionsUpdated}, pub.Topics())
}

func TestUpdateOptions_PinsRevisionWithoutIfMatch(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestService(repo, unusedSKUs())
	doc := draftWithVariants()
	doc.Revision = 7

	repo.On("GetByID", mock.Anything, "drafts.p1").Return(doc, nil)
	repo.On("Patch", mock.Anything, "drafts.p1", int64(7), mock.Anything).Run(applyPatch(doc)).Return(doc, nil)

	_, err := svc.UpdateOptions(context.Background(), "drafts.p1", 0, sizeColorOptions())

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateVariant_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc, pub := newTestService(repo, unusedSKUs())
	doc := draftWithVariants()
	key := doc.Variants[1].Key

	repo.On("GetByID", mock.Anything, "drafts.p1").Return(doc, nil)
	repo.On("Patch", mock.Anything, "drafts.p1", int64(3), mock.Anything).Run(applyPatch(doc)).Return(doc, nil)

	stock := 4
	product, err := svc.UpdateVariant(context.Background(), "drafts.p1", key, &UpdateVariantInput{
		SKU:   strPtr("WAL-M2"),
		Price: int64Ptr(2700),
		Stock: &stock,
	})

	require.NoError(t, err)
	idx, ok := domain.FindVariant(product.Variants, key)
	require.True(t, ok)
	v := product.Variants[idx]
	assert.Equal(t, "WAL-M2", v.SKU)
	assert.Equal(t, int64(2700), *v.Price)
	assert.Equal(t, 4, v.Stock)
	assert.Equal(t, "Size: M, Color: Red", v.Name)
	assert.Equal(t, []string{event.TopicVariantUpdated}, pub.Topics())
}

func TestUpdateVariant_UnknownKey(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestService(repo, unusedSKUs())

	repo.On("GetByID", mock.Anything, "drafts.p1").Return(draftWithVariants(), nil)

	_, err := svc.UpdateVariant(context.Background(), "drafts.p1", "nope", &UpdateVariantInput{})

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateVariant_InvalidSKU(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestService(repo, unusedSKUs())
	doc := draftWithVariants()
	key := doc.Variants[0].Key

	repo.On("GetByID", mock.Anything, "drafts.p1").Return(doc, nil)

	_, err := svc.UpdateVariant(context.Background(), "drafts.p1", key, &UpdateVariantInput{
		SKU: strPtr("THIS-SKU-IS-TOO-LONG"),
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.MsgSKUTooLong, appErr.Fields["variants["+key+"].sku"])
}

func TestPublishProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc, pub := newTestService(repo, unusedSKUs())
	doc := draftWithVariants()
	published := *doc
	published.ID = "p1"
	published.Status = domain.ProductStatusPublished
	published.Revision = 4

	repo.On("GetByID", mock.Anything, "drafts.p1").Return(doc, nil)
	repo.On("Publish", mock.Anything, "drafts.p1", int64(3)).Return(&published, nil)

	product, err := svc.PublishProduct(context.Background(), "drafts.p1", 0)

	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	assert.Equal(t, []string{event.TopicProductPublished}, pub.Topics())
	repo.AssertExpectations(t)
}

func TestPublishProduct_RejectsDuplicateSKUs(t *testing.T) {
	repo := new(mockProductRepository)
	taken := querierFunc(func(_ context.Context, sku, _ string) (int64, error) {
		if sku == "WAL-M" {
			return 1, nil
		}
		return 0, nil
	})
	svc, pub := newTestService(repo, taken)
	doc := draftWithVariants()
	doc.Variants[0].SKU = "WALNUT"

	repo.On("GetByID", mock.Anything, "drafts.p1").Return(doc, nil)

	_, err := svc.PublishProduct(context.Background(), "drafts.p1", 0)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.MsgSKUInUse, appErr.Fields["sku"])
	assert.Equal(t, domain.MsgSKUInUse, appErr.Fields["variants["+doc.Variants[0].Key+"].sku"])
	assert.Equal(t, domain.MsgSKUInUse, appErr.Fields["variants["+doc.Variants[1].Key+"].sku"])
	assert.Empty(t, pub.Topics())
	repo.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishProduct_RequiresVariantPrices(t *testing.T) {
	repo := new(mockProductRepository)
	svc, pub := newTestService(repo, unusedSKUs())
	doc := draftWithVariants()
	doc.Variants[1].Price = nil

	repo.On("GetByID", mock.Anything, "drafts.p1").Return(doc, nil)

	_, err := svc.PublishProduct(context.Background(), "drafts.p1", 0)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, map[string]string{
		"variants[" + doc.Variants[1].Key + "].price": domain.MsgPriceRequired,
	}, appErr.Fields)
	assert.Empty(t, pub.Topics())
	repo.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishProduct_RevisionConflict(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestService(repo, unusedSKUs())

	repo.On("GetByID", mock.Anything, "drafts.p1").Return(draftWithVariants(), nil)
	repo.On("Publish", mock.Anything, "drafts.p1", int64(2)).
		Return(nil, apperrors.Conflict("REVISION_MISMATCH", "document was modified"))

	_, err := svc.PublishProduct(context.Background(), "drafts.p1", 2)

	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestDeleteProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc, pub := newTestService(repo, unusedSKUs())

	repo.On("GetByID", mock.Anything, "p1").Return(&domain.Product{ID: "p1"}, nil)
	repo.On("Delete", mock.Anything, "p1").Return(nil)

	require.NoError(t, svc.DeleteProduct(context.Background(), "p1"))
	assert.Equal(t, []string{event.TopicProductDeleted}, pub.Topics())
	repo.AssertExpectations(t)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestService(repo, unusedSKUs())

	repo.On("GetByID", mock.Anything, "p1").Return(nil, apperrors.NotFound("product", "p1"))

	err := svc.DeleteProduct(context.Background(), "p1")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
