package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

// Product sheet columns, matched by header name. Only name and price are required.
//
//	materials: "Oak:0;Walnut:25.5"
//	details:   "Width=120cm;Weight=8kg"
//	gallery:   "https://a.png|https://b.png"
const (
	colName         = "name"
	colDescription  = "description"
	colPrice        = "price"
	colCategory     = "category"
	colImage        = "image"
	colMask         = "mask_image"
	colGallery      = "gallery"
	colCustomizable = "is_customizable"
	colStock        = "stock_quantity"
	colMaterials    = "materials"
	colDetails      = "details"
)

// SkippedRow explains why a sheet row was not imported
type SkippedRow struct {
	Row    int
	Reason string
}

// ImportProducts reads the first sheet of an XLSX workbook into products
func ImportProducts(r io.Reader) ([]model.Product, []SkippedRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("no sheets found in XLSX file")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no data found in XLSX file")
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := index[colName]; !ok {
		return nil, nil, fmt.Errorf("missing %q column", colName)
	}
	if _, ok := index[colPrice]; !ok {
		return nil, nil, fmt.Errorf("missing %q column", colPrice)
	}

	var products []model.Product
	var skipped []SkippedRow
	for i, row := range rows[1:] {
		rowNum := i + 2
		get := func(col string) string {
			idx, ok := index[col]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		name := get(colName)
		if name == "" {
			skipped = append(skipped, SkippedRow{Row: rowNum, Reason: "missing name"})
			continue
		}
		price, err := strconv.ParseFloat(get(colPrice), 64)
		if err != nil || price < 0 {
			skipped = append(skipped, SkippedRow{Row: rowNum, Reason: "invalid price"})
			continue
		}
		materials, err := parseMaterials(get(colMaterials))
		if err != nil {
			skipped = append(skipped, SkippedRow{Row: rowNum, Reason: err.Error()})
			continue
		}

		stock, _ := strconv.Atoi(get(colStock))
		customizable, _ := strconv.ParseBool(get(colCustomizable))

		products = append(products, model.Product{
			Name:           name,
			Description:    get(colDescription),
			Price:          price,
			Category:       get(colCategory),
			Image:          get(colImage),
			MaskImage:      get(colMask),
			GalleryImages:  splitList(get(colGallery), "|"),
			IsCustomizable: customizable,
			StockQuantity:  stock,
			Materials:      materials,
			Details:        parseDetails(get(colDetails)),
		})
	}
	return products, skipped, nil
}

func splitList(s, sep string) []string {
	out := []string{}
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseMaterials(s string) ([]model.ProductMaterial, error) {
	var materials []model.ProductMaterial
	for _, part := range splitList(s, ";") {
		name, extra, found := strings.Cut(part, ":")
		m := model.ProductMaterial{Name: strings.TrimSpace(name)}
		if found {
			v, err := strconv.ParseFloat(strings.TrimSpace(extra), 64)
			if err != nil || v < 0 {
				return nil, fmt.Errorf("invalid material price %q", part)
			}
			m.ExtraPrice = v
		}
		materials = append(materials, m)
	}
	return materials, nil
}

func parseDetails(s string) []model.ProductDetail {
	var details []model.ProductDetail
	for _, part := range splitList(s, ";") {
		label, value, _ := strings.Cut(part, "=")
		details = append(details, model.ProductDetail{
			Label: strings.TrimSpace(label),
			Value: strings.TrimSpace(value),
		})
	}
	return details
}
