package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	pkgkafka "github.com/alleny0o/sr-laserworks-ecommerce/pkg/kafka"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/logger"
)

// Kafka topic constants for product document events.
var (
	TopicProductCreated    = pkgkafka.Topic("product", "created")
	TopicProductUpdated    = pkgkafka.Topic("product", "updated")
	TopicProductDeleted    = pkgkafka.Topic("product", "deleted")
	TopicProductPublished  = pkgkafka.Topic("product", "published")
	TopicOptionsUpdated    = pkgkafka.Topic("product", "options_updated")
	TopicVariantUpdated    = pkgkafka.Topic("product", "variant_updated")
	TopicVariantsGenerated = pkgkafka.Topic("product", "variants_generated")
	TopicVariantsCleared   = pkgkafka.Topic("product", "variants_cleared")
)

// Aggregate type constant.
const AggregateTypeProduct = "product"

// SourceCatalogEditor identifies events originating from this service.
const SourceCatalogEditor = "catalog-editor"

// ProductData is the payload for product lifecycle events.
type ProductData struct {
	ID          string `json:"id"`
	PublishedID string `json:"published_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	SKU         string `json:"sku"`
	Price       int64  `json:"price"`
	Status      string `json:"status"`
	Revision    int64  `json:"revision"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// OptionsUpdatedData is the payload for a product.options_updated event.
type OptionsUpdatedData struct {
	ID       string          `json:"id"`
	Options  []domain.Option `json:"options"`
	Revision int64           `json:"revision"`
}

// MaxEventKeys caps the variant keys carried by one variant event. Larger
// matrices set Truncated and consumers read the document at Revision.
const MaxEventKeys = 500

// VariantsData is the payload for variant events. Keys lists the first
// variants present after the change, in document order.
type VariantsData struct {
	ID        string   `json:"id"`
	Keys      []string `json:"keys"`
	Count     int      `json:"count"`
	Truncated bool     `json:"truncated,omitempty"`
	Revision  int64    `json:"revision"`
}

// Producer publishes product document events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the catalog editor.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func productData(p *domain.Product) ProductData {
	return ProductData{
		ID:          p.ID,
		PublishedID: p.PublishedID(),
		Name:        p.Name,
		Slug:        p.Slug,
		SKU:         p.SKU,
		Price:       p.Price,
		Status:      p.Status,
		Revision:    p.Revision,
	}
}

func variantsData(p *domain.Product) VariantsData {
	n := min(len(p.Variants), MaxEventKeys)
	keys := make([]string, n)
	for i, v := range p.Variants[:n] {
		keys[i] = v.Key
	}
	return VariantsData{
		ID:        p.ID,
		Keys:      keys,
		Count:     len(p.Variants),
		Truncated: n < len(p.Variants),
		Revision:  p.Revision,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, product.ID, product.Revision, productData(product))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, product.Revision, productData(product))
}

// PublishProductPublished publishes a product.published event.
func (p *Producer) PublishProductPublished(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductPublished, product.ID, product.Revision, productData(product))
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicProductDeleted, id, 0, ProductDeletedData{ID: id})
}

// PublishOptionsUpdated publishes a product.options_updated event.
func (p *Producer) PublishOptionsUpdated(ctx context.Context, product *domain.Product) error {
	data := OptionsUpdatedData{ID: product.ID, Options: product.Options, Revision: product.Revision}
	return p.publish(ctx, TopicOptionsUpdated, product.ID, product.Revision, data)
}

// PublishVariantUpdated publishes a product.variant_updated event.
func (p *Producer) PublishVariantUpdated(ctx context.Context, product *domain.Product, variantKey string) error {
	data := VariantsData{ID: product.ID, Keys: []string{variantKey}, Count: 1, Revision: product.Revision}
	return p.publish(ctx, TopicVariantUpdated, product.ID, product.Revision, data)
}

// PublishVariantsGenerated publishes a product.variants_generated event.
func (p *Producer) PublishVariantsGenerated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicVariantsGenerated, product.ID, product.Revision, variantsData(product))
}

// PublishVariantsCleared publishes a product.variants_cleared event.
func (p *Producer) PublishVariantsCleared(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicVariantsCleared, product.ID, product.Revision, variantsData(product))
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, revision int64, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeProduct, SourceCatalogEditor, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if revision > 0 {
		event.WithVersion(int(revision))
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("document_id", aggregateID),
	)
	return nil
}
