package main

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/slug"
)

// seedNamespace keeps seeded product ids stable across runs.
var seedNamespace = uuid.MustParse("6b0f3c52-8a3e-4c5e-9a41-2f1f0d6f7c11")

type optionDef struct {
	name   string
	format domain.DisplayFormat
	values []domain.OptionValue
}

type productDef struct {
	name        string
	description string
	skuPrefix   string
	price       int64 // cents
	weightGrams float64
	options     []optionDef
	stock       int
}

var catalog = []productDef{
	{
		name:        "Walnut Cutting Board",
		description: "End-grain walnut board with a laser-engraved monogram.",
		skuPrefix:   "WCB",
		price:       6500,
		weightGrams: 1800,
		stock:       12,
		options: []optionDef{
			{"Size", domain.DisplayButtons, plain("S", "M", "L")},
			{"Finish", domain.DisplayColorSwatch, []domain.OptionValue{
				domain.ColorValue("Natural", domain.RGBA{R: 193, G: 154, B: 107, A: 1}),
				domain.ColorValue("Ebony", domain.RGBA{R: 40, G: 30, B: 20, A: 1}),
			}},
		},
	},
	{
		name:        "Engraved Slate Coaster Set",
		description: "Four natural slate coasters, engraved with a custom design.",
		skuPrefix:   "SCS",
		price:       3200,
		weightGrams: 900,
		stock:       40,
		options: []optionDef{
			{"Shape", domain.DisplayDropdown, plain("Round", "Square")},
			{"Pack", domain.DisplayButtons, plain("4", "6")},
		},
	},
	{
		name:        "Acrylic Name Sign",
		description: "Cut and engraved acrylic sign for desks and doors.",
		skuPrefix:   "ANS",
		price:       2800,
		weightGrams: 350,
		stock:       25,
		options: []optionDef{
			{"Color", domain.DisplayColorSwatch, []domain.OptionValue{
				domain.ColorValue("Clear", domain.RGBA{R: 255, G: 255, B: 255, A: 0.2}),
				domain.ColorValue("Black", domain.RGBA{R: 0, G: 0, B: 0, A: 1}),
				domain.ColorValue("Gold Mirror", domain.RGBA{R: 212, G: 175, B: 55, A: 1}),
			}},
			{"Mount", domain.DisplayDropdown, plain("Stand", "Wall")},
			{"Font", domain.DisplayButtons, plain("Serif", "Script")},
		},
	},
	{
		name:        "Leather Keychain",
		description: "Full-grain leather keychain, engraved on both sides.",
		skuPrefix:   "LKC",
		price:       1500,
		weightGrams: 40,
		stock:       100,
	},
}

func plain(values ...string) []domain.OptionValue {
	out := make([]domain.OptionValue, len(values))
	for i, v := range values {
		out[i] = domain.PlainValue(v)
	}
	return out
}

// seedProducts builds the draft documents to seed. Every variant gets a
// SKU built from the product prefix and the first letters of its values.
func seedProducts(now time.Time) []*domain.Product {
	products := make([]*domain.Product, 0, len(catalog))
	for _, def := range catalog {
		id := uuid.NewSHA1(seedNamespace, []byte(def.name)).String()

		options := make([]domain.Option, 0, len(def.options))
		for _, o := range def.options {
			options = append(options, domain.Option{Name: o.name, DisplayFormat: o.format, Values: o.values})
		}
		domain.NormalizeOptions(options)

		variants := domain.GenerateVariants(id, options)
		for i := range variants {
			variants[i].SKU = variantSKU(def.skuPrefix, variants[i].Options)
			variants[i].Stock = def.stock
			price := def.price
			variants[i].Price = &price
		}

		p := &domain.Product{
			ID:          domain.DraftID(id),
			Name:        def.name,
			Slug:        slug.Generate(def.name),
			Description: def.description,
			Price:       def.price,
			Options:     options,
			Variants:    variants,
			Shipping:    domain.NewShippingInfo(def.weightGrams),
			Status:      domain.ProductStatusDraft,
			Revision:    1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if len(variants) == 0 {
			p.SKU = def.skuPrefix
		}
		products = append(products, p)
	}
	return products
}

func variantSKU(prefix string, selection []domain.SelectedOption) string {
	parts := []string{prefix}
	for _, o := range selection {
		code := strings.ToUpper(strings.ReplaceAll(o.Value, " ", ""))
		if len(code) > 3 {
			code = code[:3]
		}
		parts = append(parts, code)
	}
	return strings.Join(parts, "-")
}
