package domain

import "strings"

// DraftPrefix marks the id of a product's unpublished working copy.
const DraftPrefix = "drafts."

// PublishedID returns the published counterpart of a document id. Draft and
// published copies of one product share this id.
func PublishedID(id string) string {
	return strings.TrimPrefix(id, DraftPrefix)
}

// DraftID returns the draft counterpart of a document id.
func DraftID(id string) string {
	return DraftPrefix + PublishedID(id)
}

// IsDraftID reports whether id refers to a draft.
func IsDraftID(id string) bool {
	return strings.HasPrefix(id, DraftPrefix)
}

// SelectedOption is the value a variant takes for one product option.
type SelectedOption struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Variant is one purchasable combination of option values. Prices are in
// minor currency units.
type Variant struct {
	Key              string           `json:"key" yaml:"key"`
	Name             string           `json:"name" yaml:"name"`
	Options          []SelectedOption `json:"options" yaml:"options"`
	SKU              string           `json:"sku" yaml:"sku,omitempty"`
	Title            *string          `json:"title,omitempty" yaml:"title,omitempty"`
	Description      *string          `json:"description,omitempty" yaml:"description,omitempty"`
	Price            *int64           `json:"price,omitempty" yaml:"price,omitempty"`
	CompareAtPrice   *int64           `json:"compare_at_price,omitempty" yaml:"compare_at_price,omitempty"`
	Stock            int              `json:"stock" yaml:"stock"`
	MaxOrderQuantity int              `json:"max_order_quantity" yaml:"max_order_quantity"`
	MediaAssociation *string          `json:"media_association,omitempty" yaml:"media_association,omitempty"`
	ShippingOverride *ShippingInfo    `json:"shipping_override,omitempty" yaml:"shipping_override,omitempty"`
}

// VariantKey derives the stable key of a combination. The published id is
// used so a draft and its published copy derive identical keys.
func VariantKey(productID string, selection []SelectedOption) string {
	parts := make([]string, len(selection))
	for i, o := range selection {
		parts[i] = o.Name + ":" + o.Value
	}
	return strings.Join(parts, "|") + "+" + PublishedID(productID)
}

// VariantName derives the display name of a combination.
func VariantName(selection []SelectedOption) string {
	parts := make([]string, len(selection))
	for i, o := range selection {
		parts[i] = o.Name + ": " + o.Value
	}
	return strings.Join(parts, ", ")
}

// Combinations returns the Cartesian product of the option values with the
// first option varying slowest. No options, or any option without values,
// yields no combinations.
func Combinations(options []Option) [][]SelectedOption {
	if len(options) == 0 {
		return [][]SelectedOption{}
	}

	acc := [][]SelectedOption{{}}
	for _, opt := range options {
		next := make([][]SelectedOption, 0, len(acc)*len(opt.Values))
		for _, partial := range acc {
			for _, v := range opt.Values {
				combo := make([]SelectedOption, len(partial), len(partial)+1)
				copy(combo, partial)
				next = append(next, append(combo, SelectedOption{Name: opt.Name, Value: v.Value}))
			}
		}
		acc = next
	}
	return acc
}

// GenerateVariants builds one default variant per option combination.
// The result is never nil.
func GenerateVariants(productID string, options []Option) []Variant {
	combos := Combinations(options)
	variants := make([]Variant, len(combos))
	for i, combo := range combos {
		variants[i] = Variant{
			Key:     VariantKey(productID, combo),
			Name:    VariantName(combo),
			Options: combo,
		}
	}
	return variants
}

// FindVariant returns the index of the variant with the given key.
func FindVariant(variants []Variant, key string) (int, bool) {
	for i := range variants {
		if variants[i].Key == key {
			return i, true
		}
	}
	return -1, false
}
