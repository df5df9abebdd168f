package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses lists every accepted status value
var OrderStatuses = []OrderStatus{
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ShippingAddress is copied onto the order; later address edits do not change it
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

// PaymentResult is what the payment gateway reported to the client
type PaymentResult struct {
	ID           string `gorm:"size:100;index" json:"id"`
	Status       string `gorm:"size:50" json:"status"`
	UpdateTime   string `gorm:"size:50" json:"update_time"`
	EmailAddress string `gorm:"size:255" json:"email_address"`
}

type Order struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod   string          `gorm:"size:50;not null" json:"payment_method"`
	PaymentResult   PaymentResult   `gorm:"embedded;embeddedPrefix:payment_" json:"payment_result"`
	TotalPrice      float64         `gorm:"not null" json:"total_price"` // fixed at creation
	Status          OrderStatus     `gorm:"type:varchar(20);default:'Processing';index" json:"status"`
	IsPaid          bool            `gorm:"default:false" json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	User       User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a frozen copy of a cart line at purchase time
type OrderItem struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	OrderID           uint      `gorm:"not null;index" json:"order_id"`
	ProductID         uint      `gorm:"not null;index" json:"product_id"`
	Name              string    `gorm:"not null" json:"name"`
	Image             string    `json:"image"`
	Mask              string    `json:"mask"`
	Price             float64   `gorm:"not null" json:"price"`
	Quantity          int       `gorm:"not null" json:"quantity"`
	SelectedColor     string    `gorm:"size:7" json:"selected_color"`
	SelectedColorName string    `gorm:"size:100" json:"selected_color_name"`
	SelectedMaterial  string    `gorm:"size:100" json:"selected_material"`
	CreatedAt         time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
