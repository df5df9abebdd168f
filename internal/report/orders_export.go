package report

import (
	"fmt"

	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

const (
	ordersSheet = "Orders"
	itemsSheet  = "Items"
	timeLayout  = "2006-01-02 15:04"
)

var orderHeaders = []interface{}{
	"Order ID", "Created", "Customer", "Email", "Status", "Paid", "Paid At",
	"Delivered At", "Payment Method", "Payment ID", "Items", "Total",
	"Street", "City", "State", "Zip", "Country",
}

var itemHeaders = []interface{}{
	"Order ID", "Product ID", "Name", "Color", "Material", "Unit Price", "Quantity", "Line Total",
}

// ExportOrders writes all orders and their items into a two-sheet workbook
func ExportOrders(orders []model.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := writeRow(f, ordersSheet, 1, orderHeaders); err != nil {
		return nil, err
	}
	if err := writeRow(f, itemsSheet, 1, itemHeaders); err != nil {
		return nil, err
	}
	_ = f.SetRowStyle(ordersSheet, 1, 1, header)
	_ = f.SetRowStyle(itemsSheet, 1, 1, header)

	itemRow := 2
	for i, o := range orders {
		paidAt, deliveredAt := "", ""
		if o.PaidAt != nil {
			paidAt = o.PaidAt.Format(timeLayout)
		}
		if o.DeliveredAt != nil {
			deliveredAt = o.DeliveredAt.Format(timeLayout)
		}
		count := 0
		for _, it := range o.OrderItems {
			count += it.Quantity
		}

		row := []interface{}{
			o.ID, o.CreatedAt.Format(timeLayout), o.User.Name, o.User.Email, string(o.Status),
			o.IsPaid, paidAt, deliveredAt, o.PaymentMethod, o.PaymentResult.ID, count, o.TotalPrice,
			o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.State,
			o.ShippingAddress.Zip, o.ShippingAddress.Country,
		}
		if err := writeRow(f, ordersSheet, i+2, row); err != nil {
			return nil, err
		}

		for _, it := range o.OrderItems {
			color := it.SelectedColor
			if it.SelectedColorName != "" {
				color = fmt.Sprintf("%s (%s)", it.SelectedColorName, it.SelectedColor)
			}
			row := []interface{}{
				o.ID, it.ProductID, it.Name, color, it.SelectedMaterial,
				it.Price, it.Quantity, lineTotal(it),
			}
			if err := writeRow(f, itemsSheet, itemRow, row); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	_ = f.SetColWidth(ordersSheet, "A", "Q", 16)
	_ = f.SetColWidth(itemsSheet, "A", "H", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
