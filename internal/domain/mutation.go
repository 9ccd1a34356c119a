package domain

import (
	"fmt"

	apperrors "github.com/alleny0o/sr-laserworks-ecommerce/pkg/errors"
)

// Mutation operation names.
const (
	OpSet          = "set"
	OpSetIfMissing = "setIfMissing"
	OpInsert       = "insert"
	OpReplace      = "replace"
)

// InsertAtEnd appends inserted variants after the last one.
const InsertAtEnd = -1

// Mutation is one primitive change to a product document. A patch is an
// ordered list of mutations applied together or not at all.
type Mutation interface {
	// Op names the primitive, for logs.
	Op() string
	// Path names the field the primitive touches.
	Path() string
	// Apply changes p in place.
	Apply(p *Product) error
}

// ApplyAll applies mutations in order, stopping at the first failure.
func ApplyAll(p *Product, mutations ...Mutation) error {
	for i, m := range mutations {
		if err := m.Apply(p); err != nil {
			return fmt.Errorf("mutation %d (%s %s): %w", i, m.Op(), m.Path(), err)
		}
	}
	return nil
}

type setVariants struct {
	variants []Variant
}

// SetVariants replaces the variant list.
func SetVariants(variants []Variant) Mutation {
	return setVariants{variants: variants}
}

func (m setVariants) Op() string   { return OpSet }
func (m setVariants) Path() string { return "variants" }

func (m setVariants) Apply(p *Product) error {
	p.Variants = append(make([]Variant, 0, len(m.variants)), m.variants...)
	return nil
}

type setVariantsIfMissing struct{}

// SetVariantsIfMissing initialises an absent variant list to empty.
func SetVariantsIfMissing() Mutation {
	return setVariantsIfMissing{}
}

func (setVariantsIfMissing) Op() string   { return OpSetIfMissing }
func (setVariantsIfMissing) Path() string { return "variants" }

func (setVariantsIfMissing) Apply(p *Product) error {
	if p.Variants == nil {
		p.Variants = []Variant{}
	}
	return nil
}

type insertVariants struct {
	at       int
	variants []Variant
}

// InsertVariants inserts variants before index at, or at the end when at is
// InsertAtEnd.
func InsertVariants(at int, variants ...Variant) Mutation {
	return insertVariants{at: at, variants: variants}
}

func (m insertVariants) Op() string   { return OpInsert }
func (m insertVariants) Path() string { return "variants" }

func (m insertVariants) Apply(p *Product) error {
	at := m.at
	if at == InsertAtEnd {
		at = len(p.Variants)
	}
	if at < 0 || at > len(p.Variants) {
		return apperrors.InvalidInput(fmt.Sprintf("insert position %d out of range", m.at))
	}
	if at == len(p.Variants) {
		p.Variants = append(p.Variants, m.variants...)
		return nil
	}

	out := make([]Variant, 0, len(p.Variants)+len(m.variants))
	out = append(out, p.Variants[:at]...)
	out = append(out, m.variants...)
	out = append(out, p.Variants[at:]...)
	p.Variants = out
	return nil
}

type replaceVariant struct {
	variant Variant
}

// ReplaceVariant swaps the variant whose key matches v.Key for v.
func ReplaceVariant(v Variant) Mutation {
	return replaceVariant{variant: v}
}

func (m replaceVariant) Op() string   { return OpReplace }
func (m replaceVariant) Path() string { return "variants[key==" + m.variant.Key + "]" }

func (m replaceVariant) Apply(p *Product) error {
	i, ok := FindVariant(p.Variants, m.variant.Key)
	if !ok {
		return apperrors.NotFound("variant", m.variant.Key)
	}
	p.Variants[i] = m.variant
	return nil
}

type setOptions struct {
	options []Option
}

// SetOptions replaces the option list. Variants are left as they are.
func SetOptions(options []Option) Mutation {
	return setOptions{options: options}
}

func (m setOptions) Op() string   { return OpSet }
func (m setOptions) Path() string { return "options" }

func (m setOptions) Apply(p *Product) error {
	p.Options = append(make([]Option, 0, len(m.options)), m.options...)
	return nil
}

// ProductFields holds top-level product fields to overwrite. Nil fields are
// left unchanged.
type ProductFields struct {
	Name           *string
	Slug           *string
	Description    *string
	SKU            *string
	Price          *int64
	CompareAtPrice *int64
	Shipping       *ShippingInfo
	Status         *string
}

type setFields struct {
	fields ProductFields
}

// SetFields overwrites the non-nil top-level fields.
func SetFields(fields ProductFields) Mutation {
	return setFields{fields: fields}
}

func (m setFields) Op() string   { return OpSet }
func (m setFields) Path() string { return "fields" }

func (m setFields) Apply(p *Product) error {
	f := m.fields
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Slug != nil {
		p.Slug = *f.Slug
	}
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.SKU != nil {
		p.SKU = *f.SKU
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	if f.CompareAtPrice != nil {
		p.CompareAtPrice = f.CompareAtPrice
	}
	if f.Shipping != nil {
		p.Shipping = f.Shipping
	}
	if f.Status != nil {
		if !IsValidStatus(*f.Status) {
			return apperrors.InvalidInput(fmt.Sprintf("invalid status %q", *f.Status))
		}
		p.Status = *f.Status
	}
	return nil
}

// RegenerateVariants is the patch that replaces the variant list with
// variants, expressed with the set/insert primitives.
func RegenerateVariants(variants []Variant) []Mutation {
	return []Mutation{
		SetVariantsIfMissing(),
		SetVariants([]Variant{}),
		InsertVariants(InsertAtEnd, variants...),
	}
}

// ClearVariants is the patch that empties the variant list.
func ClearVariants() []Mutation {
	return []Mutation{SetVariants([]Variant{})}
}
