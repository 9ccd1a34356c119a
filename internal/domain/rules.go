package domain

import "fmt"

// Field rule messages.
const (
	MsgMustBePositive     = "Must be a positive number"
	MsgMustBeNonNegative  = "Must be zero or greater"
	MsgMustExceedPrice    = "Must be greater than price"
	MsgPriceRequired      = "Price is required"
	MsgUnknownRestriction = "Unknown shipping restriction: %s"
)

type productRule struct {
	field   string
	message string
	invalid func(p *Product) bool
}

var productRules = []productRule{
	{"price", MsgMustBePositive, func(p *Product) bool { return p.Price <= 0 }},
	{"compare_at_price", MsgMustBePositive, func(p *Product) bool {
		return p.CompareAtPrice != nil && *p.CompareAtPrice <= 0
	}},
	{"compare_at_price", MsgMustExceedPrice, func(p *Product) bool {
		return p.CompareAtPrice != nil && p.Price > 0 && *p.CompareAtPrice <= p.Price
	}},
}

type variantRule struct {
	field   string
	message string
	invalid func(v *Variant) bool
}

var variantRules = []variantRule{
	{"price", MsgMustBeNonNegative, func(v *Variant) bool { return v.Price != nil && *v.Price < 0 }},
	{"compare_at_price", MsgMustBeNonNegative, func(v *Variant) bool {
		return v.CompareAtPrice != nil && *v.CompareAtPrice < 0
	}},
	{"stock", MsgMustBeNonNegative, func(v *Variant) bool { return v.Stock < 0 }},
	{"max_order_quantity", MsgMustBeNonNegative, func(v *Variant) bool { return v.MaxOrderQuantity < 0 }},
}

type shippingRule struct {
	field   string
	message string
	invalid func(s *ShippingInfo) bool
}

var shippingRules = []shippingRule{
	{"weight_grams", MsgMustBePositive, func(s *ShippingInfo) bool { return s.WeightGrams <= 0 }},
	{"dimensions.length_cm", MsgMustBePositive, func(s *ShippingInfo) bool {
		return s.Dimensions != nil && s.Dimensions.LengthCM <= 0
	}},
	{"dimensions.width_cm", MsgMustBePositive, func(s *ShippingInfo) bool {
		return s.Dimensions != nil && s.Dimensions.WidthCM <= 0
	}},
	{"dimensions.height_cm", MsgMustBePositive, func(s *ShippingInfo) bool {
		return s.Dimensions != nil && s.Dimensions.HeightCM <= 0
	}},
	{"customs.customs_value", MsgMustBeNonNegative, func(s *ShippingInfo) bool {
		return s.Customs != nil && s.Customs.CustomsValue != nil && *s.Customs.CustomsValue < 0
	}},
}

// ValidateProductFields checks the product-level pricing and shipping fields.
func ValidateProductFields(p *Product) FieldErrors {
	errs := FieldErrors{}
	for _, r := range productRules {
		if r.invalid(p) {
			errs.add(r.field, r.message)
		}
	}
	if p.Shipping != nil {
		errs.Merge(ValidateShipping("shipping", p.Shipping))
	}
	return errs
}

// ValidateVariantFields checks the editable fields of one variant. path
// prefixes every reported field, e.g. "variants[2]".
func ValidateVariantFields(path string, v *Variant) FieldErrors {
	errs := FieldErrors{}
	for _, r := range variantRules {
		if r.invalid(v) {
			errs.add(path+"."+r.field, r.message)
		}
	}
	if v.ShippingOverride != nil {
		errs.Merge(ValidateShipping(path+".shipping_override", v.ShippingOverride))
	}
	return errs
}

// ValidateVariantForPublish applies ValidateVariantFields and also requires a
// price, which may still be unset while the variant is being edited.
func ValidateVariantForPublish(path string, v *Variant) FieldErrors {
	errs := ValidateVariantFields(path, v)
	if v.Price == nil {
		errs.add(path+".price", MsgPriceRequired)
	}
	return errs
}

// ValidateShipping checks shipping info under the given path.
func ValidateShipping(path string, s *ShippingInfo) FieldErrors {
	errs := FieldErrors{}
	for _, r := range shippingRules {
		if r.invalid(s) {
			errs.add(path+"."+r.field, r.message)
		}
	}
	for i, restriction := range s.Restrictions {
		if !IsValidRestriction(restriction) {
			errs.add(fmt.Sprintf("%s.restrictions[%d]", path, i), fmt.Sprintf(MsgUnknownRestriction, restriction))
		}
	}
	return errs
}
