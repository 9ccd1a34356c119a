package http

import (
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
)

// ColorRequest is a swatch color in #RRGGBB form with an optional alpha.
type ColorRequest struct {
	Hex   string   `json:"hex" validate:"required,hexcolor6"`
	Alpha *float64 `json:"alpha" validate:"omitempty,gte=0,lte=1"`
}

// ImageRequest references an uploaded image asset.
type ImageRequest struct {
	Ref string `json:"ref" validate:"required,max=500"`
}

// OptionValueRequest is one value of an option in a request body.
type OptionValueRequest struct {
	Key   string        `json:"key" validate:"omitempty,max=64"`
	Kind  string        `json:"kind" validate:"omitempty,oneof=plain color image"`
	Value string        `json:"value" validate:"max=200"`
	Color *ColorRequest `json:"color"`
	Image *ImageRequest `json:"image"`
}

// OptionRequest is one product option in a request body. Names, formats
// and value lists are checked against the option schema by the service so
// that every violation is reported with its path.
type OptionRequest struct {
	Key           string               `json:"key" validate:"omitempty,max=64"`
	Name          string               `json:"name" validate:"max=100"`
	DisplayFormat string               `json:"display_format"`
	Values        []OptionValueRequest `json:"values" validate:"dive"`
}

// UpdateOptionsRequest is the JSON request body for replacing the option list.
type UpdateOptionsRequest struct {
	Options []OptionRequest `json:"options" validate:"dive"`
}

func toDomainOptions(reqs []OptionRequest) []domain.Option {
	options := make([]domain.Option, len(reqs))
	for i, o := range reqs {
		options[i] = domain.Option{
			Key:           o.Key,
			Name:          o.Name,
			DisplayFormat: domain.DisplayFormat(o.DisplayFormat),
			Values:        make([]domain.OptionValue, len(o.Values)),
		}
		for j, v := range o.Values {
			options[i].Values[j] = toDomainValue(v)
		}
	}
	return options
}

func toDomainValue(v OptionValueRequest) domain.OptionValue {
	value := domain.OptionValue{
		Key:   v.Key,
		Kind:  domain.ValueKind(v.Kind),
		Value: v.Value,
	}
	if v.Color != nil {
		// The hex form was checked by the request validator.
		if c, err := domain.ParseHexColor(v.Color.Hex); err == nil {
			if v.Color.Alpha != nil {
				c.A = *v.Color.Alpha
			}
			value.Color = &c
		}
	}
	if v.Image != nil {
		value.Image = &domain.AssetRef{Ref: v.Image.Ref}
	}
	return value
}
