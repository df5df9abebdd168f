// Package report renders order documents: PDF invoices and XLSX exports,
// plus the XLSX product sheet used to seed the catalog.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/viznest/viznest-backend/internal/app/model"
)

const (
	storeName  = "VizNest"
	dateLayout = "Jan 2, 2006"
)

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func lineTotal(it model.OrderItem) float64 {
	return decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2).InexactFloat64()
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

// itemOptions renders color and material as a short suffix for the item column
func itemOptions(it model.OrderItem) string {
	var parts []string
	switch {
	case it.SelectedColorName != "":
		parts = append(parts, it.SelectedColorName)
	case it.SelectedColor != "":
		parts = append(parts, it.SelectedColor)
	}
	if it.SelectedMaterial != "" {
		parts = append(parts, it.SelectedMaterial)
	}
	return strings.Join(parts, ", ")
}

func addressLines(a model.ShippingAddress) []string {
	lines := []string{a.Street}
	city := strings.TrimSpace(strings.Join([]string{a.City, a.State, a.Zip}, " "))
	if city != "" {
		lines = append(lines, city)
	}
	if a.Country != "" {
		lines = append(lines, a.Country)
	}
	if a.Phone != "" {
		lines = append(lines, a.Phone)
	}
	return lines
}

// Invoice renders a one-page PDF invoice for the order
func Invoice(order *model.Order) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice #%d", order.ID), true)
	pdf.SetAuthor(storeName, true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, storeName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Invoice #%d", order.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Order date: "+formatDate(&order.CreatedAt), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Paid: "+formatDate(order.PaidAt), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Delivered: "+formatDate(order.DeliveredAt), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	if order.User.Name != "" {
		pdf.CellFormat(0, 6, tr(order.User.Name), "", 1, "L", false, 0, "")
	}
	if order.User.Email != "" {
		pdf.CellFormat(0, 6, tr(order.User.Email), "", 1, "L", false, 0, "")
	}
	for _, line := range addressLines(order.ShippingAddress) {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Payment: "+tr(order.PaymentMethod), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	widths := []float64{90, 25, 30, 35}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Item", "Qty", "Price", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "B", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range order.OrderItems {
		name := it.Name
		if opts := itemOptions(it); opts != "" {
			name = fmt.Sprintf("%s (%s)", name, opts)
		}
		pdf.CellFormat(widths[0], 7, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, money(it.Price), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money(lineTotal(it)), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, money(order.TotalPrice), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), nil
}
