package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	ID             uint                       `gorm:"primarykey" json:"id"`
	Name           string                     `gorm:"not null" json:"name"`
	Description    string                     `gorm:"type:text" json:"description"`
	Price          float64                    `gorm:"not null" json:"price"`
	Category       string                     `gorm:"type:varchar(100);index" json:"category"`
	Image          string                     `json:"image"`
	GalleryImages  datatypes.JSONSlice[string] `json:"gallery_images"`
	MaskImage      string                     `json:"mask_image"` // alpha channel marks the recolorable area
	IsCustomizable bool                       `gorm:"default:false" json:"is_customizable"`
	Rating         float64                    `gorm:"default:0" json:"rating"`
	NumReviews     int                        `gorm:"default:0" json:"num_reviews"`
	Sold           int                        `gorm:"default:0" json:"sold"`
	StockQuantity  int                        `gorm:"default:0" json:"stock_quantity"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
	DeletedAt      gorm.DeletedAt             `gorm:"index" json:"-"`

	Materials []ProductMaterial `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"materials"`
	Details   []ProductDetail   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"details"`
	Reviews   []Review          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// FindMaterial looks a material up by name, case-insensitively
func (p *Product) FindMaterial(name string) (*ProductMaterial, bool) {
	for i := range p.Materials {
		if equalFold(p.Materials[i].Name, name) {
			return &p.Materials[i], true
		}
	}
	return nil, false
}

type ProductMaterial struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	ProductID   uint    `gorm:"not null;index" json:"product_id"`
	Name        string  `gorm:"size:100;not null" json:"name"`
	ExtraPrice  float64 `gorm:"default:0" json:"extra_price"`
	Description string  `gorm:"type:text" json:"description"`
}

func (ProductMaterial) TableName() string {
	return "product_materials"
}

type ProductDetail struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Label     string `gorm:"size:100;not null" json:"label"`
	Value     string `gorm:"type:text" json:"value"`
}

func (ProductDetail) TableName() string {
	return "product_details"
}
