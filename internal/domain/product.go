package domain

import (
	"time"
)

// Product status constants.
const (
	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"
	ProductStatusArchived  = "archived"
)

// Product is a catalog document. ID is either a published id or a draft id
// (DraftPrefix + published id). Revision increases on every change and is
// used for optimistic concurrency. Prices are in minor currency units.
type Product struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Slug           string        `json:"slug"`
	Description    string        `json:"description"`
	SKU            string        `json:"sku"`
	Price          int64         `json:"price"`
	CompareAtPrice *int64        `json:"compare_at_price,omitempty"`
	Options        []Option      `json:"options"`
	Variants       []Variant     `json:"variants"`
	Shipping       *ShippingInfo `json:"shipping,omitempty"`
	Status         string        `json:"status"`
	Revision       int64         `json:"revision"`
	PublishedAt    *time.Time    `json:"published_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// PublishedID returns the id shared by the product's draft and published copies.
func (p *Product) PublishedID() string {
	return PublishedID(p.ID)
}

// IsDraft reports whether the document is a draft copy.
func (p *Product) IsDraft() bool {
	return IsDraftID(p.ID)
}

// SKUScope returns the scope for checking a SKU field of this product.
// An empty variantKey selects the product-level SKU.
func (p *Product) SKUScope(variantKey string) SKUScope {
	return SKUScope{
		ProductID:       p.PublishedID(),
		ProductSKU:      p.SKU,
		VariantKey:      variantKey,
		IsVariant:       variantKey != "",
		SiblingVariants: p.Variants,
	}
}

// SKUs returns every non-empty SKU the product uses, product first.
func (p *Product) SKUs() []string {
	skus := make([]string, 0, len(p.Variants)+1)
	if p.SKU != "" {
		skus = append(skus, p.SKU)
	}
	for _, v := range p.Variants {
		if v.SKU != "" {
			skus = append(skus, v.SKU)
		}
	}
	return skus
}

// ValidStatuses returns the set of valid product statuses.
func ValidStatuses() []string {
	return []string{ProductStatusDraft, ProductStatusPublished, ProductStatusArchived}
}

// IsValidStatus checks whether the given status string is a valid product status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}
