package model

import (
	"time"
)

// CartItem is one cart line. Lines merge when product, color and material all match.
type CartItem struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	UserID            uint      `gorm:"not null;index" json:"user_id,omitempty"`
	ProductID         uint      `gorm:"not null;index" json:"product_id"`
	Name              string    `json:"name"`
	Image             string    `json:"image"`
	Mask              string    `json:"mask"`
	Price             float64   `gorm:"not null" json:"price"` // unit price incl. material surcharge
	Quantity          int       `gorm:"not null;default:1" json:"quantity"`
	SelectedColor     string    `gorm:"size:7" json:"selected_color"`
	SelectedColorName string    `gorm:"size:100" json:"selected_color_name"`
	SelectedMaterial  string    `gorm:"size:100" json:"selected_material"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// SameLine reports whether two lines share the merge identity
func (c CartItem) SameLine(o CartItem) bool {
	return c.ProductID == o.ProductID &&
		c.SelectedColor == o.SelectedColor &&
		equalFold(c.SelectedMaterial, o.SelectedMaterial)
}

// ToOrderItem freezes the line into an order snapshot
func (c CartItem) ToOrderItem() OrderItem {
	return OrderItem{
		ProductID:         c.ProductID,
		Name:              c.Name,
		Image:             c.Image,
		Mask:              c.Mask,
		Price:             c.Price,
		Quantity:          c.Quantity,
		SelectedColor:     c.SelectedColor,
		SelectedColorName: c.SelectedColorName,
		SelectedMaterial:  c.SelectedMaterial,
	}
}

// CartOwner identifies whose cart a request operates on: a signed-in user or a guest session
type CartOwner struct {
	UserID  uint
	GuestID string
}

func (o CartOwner) IsGuest() bool {
	return o.UserID == 0
}

func (o CartOwner) Valid() bool {
	return o.UserID != 0 || o.GuestID != ""
}
