package domain

// Shipping restriction constants.
const (
	RestrictionHazmat          = "hazmat"
	RestrictionNoAir           = "noAir"
	RestrictionTempControl     = "tempControl"
	RestrictionNoInternational = "noInternational"
)

// ShippingInfo describes how a product or variant ships.
type ShippingInfo struct {
	WeightGrams      float64      `json:"weight_grams" yaml:"weight_grams"`
	Dimensions       *Dimensions  `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	RequiresShipping bool         `json:"requires_shipping" yaml:"requires_shipping"`
	Fragile          bool         `json:"fragile" yaml:"fragile"`
	Restrictions     []string     `json:"restrictions,omitempty" yaml:"restrictions,omitempty"`
	Customs          *CustomsInfo `json:"customs,omitempty" yaml:"customs,omitempty"`
}

// Dimensions are in centimetres.
type Dimensions struct {
	LengthCM float64 `json:"length_cm" yaml:"length_cm"`
	WidthCM  float64 `json:"width_cm" yaml:"width_cm"`
	HeightCM float64 `json:"height_cm" yaml:"height_cm"`
}

// CustomsInfo is needed for international shipments.
type CustomsInfo struct {
	HSCode          string `json:"hs_code,omitempty" yaml:"hs_code,omitempty"`
	CountryOfOrigin string `json:"country_of_origin,omitempty" yaml:"country_of_origin,omitempty"`
	CustomsValue    *int64 `json:"customs_value,omitempty" yaml:"customs_value,omitempty"`
}

// NewShippingInfo returns shipping info with the editor defaults applied.
func NewShippingInfo(weightGrams float64) *ShippingInfo {
	return &ShippingInfo{WeightGrams: weightGrams, RequiresShipping: true}
}

// ValidRestrictions returns the set of valid shipping restrictions.
func ValidRestrictions() []string {
	return []string{RestrictionHazmat, RestrictionNoAir, RestrictionTempControl, RestrictionNoInternational}
}

// IsValidRestriction checks whether the given string is a valid shipping restriction.
func IsValidRestriction(r string) bool {
	for _, v := range ValidRestrictions() {
		if v == r {
			return true
		}
	}
	return false
}
