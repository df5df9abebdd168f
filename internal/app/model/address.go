package model

import (
	"time"
)

// Address is a saved shipping address. At most one per user has IsPrimary set.
type Address struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Street    string    `gorm:"size:255;not null" json:"street"`
	City      string    `gorm:"size:100;not null" json:"city"`
	State     string    `gorm:"size:100" json:"state"`
	Zip       string    `gorm:"size:20" json:"zip"`
	Country   string    `gorm:"size:100;not null" json:"country"`
	Phone     string    `gorm:"size:30" json:"phone"`
	IsPrimary bool      `gorm:"default:false;index" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Address) TableName() string {
	return "addresses"
}

// Snapshot copies the address into the shape stored on orders
func (a Address) Snapshot() ShippingAddress {
	return ShippingAddress{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
		Country: a.Country,
		Phone:   a.Phone,
	}
}
