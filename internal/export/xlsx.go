// Package export renders a product's variant matrix as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
)

// VariantSheet is the name of the worksheet holding the variant matrix.
const VariantSheet = "Variants"

// ContentType is the media type of the workbook written by WriteVariants.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header returns the column titles for a product: the fixed variant columns
// around one column per option.
func Header(p *domain.Product) []string {
	header := []string{"Key", "Name"}
	for _, o := range p.Options {
		header = append(header, o.Name)
	}
	return append(header, "SKU", "Price", "Compare At Price", "Stock", "Max Order Quantity")
}

// Row returns the cells of one variant, aligned with Header.
func Row(p *domain.Product, v *domain.Variant) []any {
	row := []any{v.Key, v.Name}
	for _, o := range p.Options {
		row = append(row, selected(v, o.Name))
	}
	return append(row, v.SKU, optional(v.Price), optional(v.CompareAtPrice), v.Stock, v.MaxOrderQuantity)
}

// VariantWorkbook builds a workbook with one row per variant. The caller
// must Close the returned file.
func VariantWorkbook(p *domain.Product) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", VariantSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := Header(p)
	if err := f.SetSheetRow(VariantSheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(VariantSheet, "A1", lastCol+"1", bold); err != nil {
		f.Close()
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i := range p.Variants {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := Row(p, &p.Variants[i])
		if err := f.SetSheetRow(VariantSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write variant %s: %w", p.Variants[i].Key, err)
		}
	}

	return f, nil
}

// WriteVariants writes the variant workbook of p to w.
func WriteVariants(w io.Writer, p *domain.Product) error {
	f, err := VariantWorkbook(p)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func selected(v *domain.Variant, option string) string {
	for _, o := range v.Options {
		if o.Name == option {
			return o.Value
		}
	}
	return ""
}

func optional(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}
