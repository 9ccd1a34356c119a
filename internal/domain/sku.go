package domain

import (
	"regexp"
	"strings"
)

// MaxSKULength is the longest SKU accepted.
const MaxSKULength = 16

// SKU check messages.
const (
	MsgSKURequired     = "SKU is required"
	MsgSKUTooLong      = "SKU must be at maximum 16 characters"
	MsgSKUFormat       = "SKU can only contain letters, numbers, and hyphens"
	MsgSKUInUse        = "This SKU is already in use"
	MsgSKULookupFailed = "Unable to verify SKU uniqueness, please try again"
)

// SKUReason classifies the outcome of a SKU check for logs and metrics.
type SKUReason string

// SKU check reasons.
const (
	SKUReasonOK           SKUReason = "ok"
	SKUReasonFormat       SKUReason = "format"
	SKUReasonDuplicate    SKUReason = "duplicate"
	SKUReasonLookupFailed SKUReason = "lookup_failed"
)

var skuPattern = regexp.MustCompile(`^[a-zA-Z0-9-]*$`)

// SKURule is one structural SKU check.
type SKURule struct {
	Name    string
	Message string
	Valid   func(sku string) bool
}

// SKURules are evaluated in order; the first failure wins.
var SKURules = []SKURule{
	{Name: "required", Message: MsgSKURequired, Valid: func(s string) bool { return strings.TrimSpace(s) != "" }},
	{Name: "max_length", Message: MsgSKUTooLong, Valid: func(s string) bool { return len(s) <= MaxSKULength }},
	{Name: "format", Message: MsgSKUFormat, Valid: skuPattern.MatchString},
}

// CheckSKUFormat runs the structural rules and returns the first failing
// rule, if any.
func CheckSKUFormat(sku string) (*SKURule, bool) {
	for i := range SKURules {
		if !SKURules[i].Valid(sku) {
			return &SKURules[i], false
		}
	}
	return nil, true
}

// SKUResult is the outcome of a SKU check. Message is empty when Valid.
type SKUResult struct {
	Valid   bool      `json:"valid"`
	Message string    `json:"message,omitempty"`
	Reason  SKUReason `json:"reason"`
}

// SKUScope is everything a SKU check needs to know about the edited field.
// VariantKey identifies the variant being edited and is ignored for
// product-level checks.
type SKUScope struct {
	ProductID       string
	ProductSKU      string
	VariantKey      string
	IsVariant       bool
	SiblingVariants []Variant
}

// LocalSKUConflict reports whether sku collides with another SKU of the same
// product.
func LocalSKUConflict(sku string, scope SKUScope) bool {
	if scope.IsVariant {
		if scope.ProductSKU != "" && scope.ProductSKU == sku {
			return true
		}
		for _, v := range scope.SiblingVariants {
			if v.Key != scope.VariantKey && v.SKU == sku {
				return true
			}
		}
		return false
	}

	for _, v := range scope.SiblingVariants {
		if v.SKU == sku {
			return true
		}
	}
	return false
}
