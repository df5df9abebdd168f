package service

import (
	"github.com/shopspring/decimal"
	"github.com/viznest/viznest-backend/internal/app/model"
)

const priceScale = 2

// UnitPrice is the product price plus the selected material's surcharge
func UnitPrice(product *model.Product, material *model.ProductMaterial) float64 {
	price := decimal.NewFromFloat(product.Price)
	if material != nil {
		price = price.Add(decimal.NewFromFloat(material.ExtraPrice))
	}
	return price.Round(priceScale).InexactFloat64()
}

// CartTotal sums price x quantity over the lines without float drift
func CartTotal(lines []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(priceScale)
}

// OrderItemsTotal is the same sum over an order's snapshot lines
func OrderItemsTotal(items []model.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(priceScale)
}
