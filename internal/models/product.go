// internal/models/product.go
package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	BaseModel
	Name        string         `json:"name" gorm:"size:100;not null"`
	NamePersian string         `json:"name_persian" gorm:"size:100;not null"`
	Description string         `json:"description" gorm:"type:text"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

type Product struct {
	BaseModel
	Name                 string          `json:"name" gorm:"size:200;not null"`
	NamePersian          string          `json:"name_persian" gorm:"size:200;not null"`
	Description          string          `json:"description" gorm:"type:text"`
	DescriptionPersian   string          `json:"description_persian" gorm:"type:text"`
	Price                decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	StockQuantity        int             `json:"stock_quantity" gorm:"not null"`
	ImageURL             string          `json:"image_url" gorm:"size:500"`
	CategoryID           uint            `json:"category_id" gorm:"not null;index"`
	IsActive             bool            `json:"is_active" gorm:"not null;index"`
	Brand                string          `json:"brand" gorm:"size:100"`
	Weight               string          `json:"weight" gorm:"size:50"`
	ServingSize          string          `json:"serving_size" gorm:"size:50"`
	ServingsPerContainer int             `json:"servings_per_container"`
	Ingredients          string          `json:"ingredients" gorm:"type:text"`
	UsageInstructions    string          `json:"usage_instructions" gorm:"type:text"`
	Warnings             string          `json:"warnings" gorm:"type:text"`
	DeletedAt            gorm.DeletedAt  `json:"-" gorm:"index"`

	// Relationships
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// Purchasable reports whether the product can appear in a new order.
func (p *Product) Purchasable() bool {
	return p.IsActive && !p.DeletedAt.Valid
}
