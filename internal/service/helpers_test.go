package service

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/event"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
	pkgkafka "github.com/alleny0o/sr-laserworks-ecommerce/pkg/kafka"
)

// --- Mock Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Patch(ctx context.Context, id string, expectedRevision int64, mutations ...domain.Mutation) (*domain.Product, error) {
	args := m.Called(ctx, id, expectedRevision, mutations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) Publish(ctx context.Context, id string, expectedRevision int64) (*domain.Product, error) {
	args := m.Called(ctx, id, expectedRevision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// applyPatch makes a Patch expectation return the document with the
// mutations applied.
func applyPatch(doc *domain.Product) func(mock.Arguments) {
	return func(args mock.Arguments) {
		muts := args.Get(3).([]domain.Mutation)
		if err := domain.ApplyAll(doc, muts...); err != nil {
			panic(err)
		}
		doc.Revision++
	}
}

// --- Fake SKU querier ---

type querierFunc func(ctx context.Context, sku, productID string) (int64, error)

func (f querierFunc) CountSKUUsage(ctx context.Context, sku, productID string) (int64, error) {
	return f(ctx, sku, productID)
}

func unusedSKUs() querierFunc {
	return func(context.Context, string, string) (int64, error) { return 0, nil }
}

// --- Recording publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return nil
}

func (r *recordingPublisher) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.topics...)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestValidator(repo repository.ProductRepository, querier repository.SKUQuerier) *SKUValidator {
	return NewSKUValidator(repo, querier, nil, DefaultSKUValidatorConfig(), newTestLogger())
}

func newTestService(repo *mockProductRepository, querier repository.SKUQuerier) (*ProductService, *recordingPublisher) {
	logger := newTestLogger()
	pub := &recordingPublisher{}
	producer := event.NewProducer(pub, logger)
	return NewProductService(repo, newTestValidator(repo, querier), producer, logger), pub
}

func newTestVariantService(repo *mockProductRepository) (*VariantService, *recordingPublisher) {
	logger := newTestLogger()
	pub := &recordingPublisher{}
	return NewVariantService(repo, event.NewProducer(pub, logger), logger), pub
}

func strPtr(s string) *string {
	return &s
}

func int64Ptr(i int64) *int64 {
	return &i
}

func sizeColorOptions() []domain.Option {
	return []domain.Option{
		{Key: "o1", Name: "Size", DisplayFormat: domain.DisplayButtons, Values: []domain.OptionValue{
			{Key: "s", Kind: domain.ValueKindPlain, Value: "S"},
			{Key: "m", Kind: domain.ValueKindPlain, Value: "M"},
		}},
		{Key: "o2", Name: "Color", DisplayFormat: domain.DisplayDropdown, Values: []domain.OptionValue{
			{Key: "r", Kind: domain.ValueKindPlain, Value: "Red"},
		}},
	}
}

func draftWithVariants() *domain.Product {
	return &domain.Product{
		ID:       "drafts.p1",
		Name:     "Walnut Sign",
		SKU:      "WALNUT",
		Price:    2500,
		Options:  sizeColorOptions(),
		Status:   domain.ProductStatusDraft,
		Revision: 3,
		Variants: []domain.Variant{
			{Key: "Size:S|Color:Red+p1", Name: "Size: S, Color: Red", SKU: "WAL-S", Price: int64Ptr(2500)},
			{Key: "Size:M|Color:Red+p1", Name: "Size: M, Color: Red", SKU: "WAL-M", Price: int64Ptr(2700)},
		},
	}
}
