package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Option limits.
const (
	MaxOptions         = 3
	MinValuesPerOption = 1
	MaxValuesPerOption = 30
)

// DisplayFormat controls how an option is presented to shoppers. It also
// fixes which kind of value the option holds.
type DisplayFormat string

// Display format constants.
const (
	DisplayDropdown    DisplayFormat = "dropdown"
	DisplayButtons     DisplayFormat = "buttons"
	DisplayColorSwatch DisplayFormat = "colorSwatch"
	DisplayImages      DisplayFormat = "images"
)

// ValueKind is the discriminant of an OptionValue.
type ValueKind string

// Value kind constants.
const (
	ValueKindPlain ValueKind = "plain"
	ValueKindColor ValueKind = "color"
	ValueKindImage ValueKind = "image"
)

// ValidDisplayFormats returns the set of valid display formats.
func ValidDisplayFormats() []DisplayFormat {
	return []DisplayFormat{DisplayDropdown, DisplayButtons, DisplayColorSwatch, DisplayImages}
}

// IsValidDisplayFormat checks whether the given string is a valid display format.
func IsValidDisplayFormat(format string) bool {
	for _, f := range ValidDisplayFormats() {
		if string(f) == format {
			return true
		}
	}
	return false
}

// ValueKind returns the kind of value an option with this format carries.
func (f DisplayFormat) ValueKind() ValueKind {
	switch f {
	case DisplayColorSwatch:
		return ValueKindColor
	case DisplayImages:
		return ValueKindImage
	default:
		return ValueKindPlain
	}
}

// RGBA is a swatch color.
type RGBA struct {
	R uint8   `json:"r" yaml:"r"`
	G uint8   `json:"g" yaml:"g"`
	B uint8   `json:"b" yaml:"b"`
	A float64 `json:"a" yaml:"a"`
}

// Hex returns the color as #rrggbb, ignoring alpha.
func (c RGBA) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHexColor parses a #RRGGBB string into an opaque RGBA.
func ParseHexColor(hex string) (RGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return RGBA{}, fmt.Errorf("invalid hex color %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 1}, nil
}

// AssetRef points to an image asset held by the media service.
type AssetRef struct {
	Ref string `json:"ref" yaml:"ref"`
}

// OptionValue is one selectable value of an option. Kind selects which
// payload is meaningful: Color for color values, Image for image values,
// neither for plain values. Key is random and only identifies the entry
// within its list.
type OptionValue struct {
	Key   string    `json:"key" yaml:"key"`
	Kind  ValueKind `json:"kind" yaml:"kind"`
	Value string    `json:"value" yaml:"value"`
	Color *RGBA     `json:"color,omitempty" yaml:"color,omitempty"`
	Image *AssetRef `json:"image,omitempty" yaml:"image,omitempty"`
}

// PlainValue returns a plain option value with a fresh key.
func PlainValue(value string) OptionValue {
	return OptionValue{Key: NewKey(), Kind: ValueKindPlain, Value: value}
}

// ColorValue returns a color swatch value with a fresh key.
func ColorValue(value string, color RGBA) OptionValue {
	return OptionValue{Key: NewKey(), Kind: ValueKindColor, Value: value, Color: &color}
}

// ImageValue returns an image-backed value with a fresh key.
func ImageValue(value string, image AssetRef) OptionValue {
	return OptionValue{Key: NewKey(), Kind: ValueKindImage, Value: value, Image: &image}
}

// Option is a named axis of product variation.
type Option struct {
	Key           string        `json:"key" yaml:"key"`
	Name          string        `json:"name" yaml:"name"`
	DisplayFormat DisplayFormat `json:"display_format" yaml:"display_format"`
	Values        []OptionValue `json:"values" yaml:"values"`
}

// NewKey returns a random 12 character list key.
func NewKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// NormalizeOptions fills in missing list keys and value kinds in place.
// A value without a kind takes the kind implied by its option's format.
func NormalizeOptions(options []Option) {
	for i := range options {
		if options[i].Key == "" {
			options[i].Key = NewKey()
		}
		for j := range options[i].Values {
			v := &options[i].Values[j]
			if v.Key == "" {
				v.Key = NewKey()
			}
			if v.Kind == "" {
				v.Kind = options[i].DisplayFormat.ValueKind()
			}
		}
	}
}
