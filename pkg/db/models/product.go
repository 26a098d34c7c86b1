package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. Products without variations carry a single
// stock row whose variation id is null.
type Product struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name          string             `gorm:"column:name;size:255;not null"`
	Description   *string            `gorm:"column:description"`
	Price         decimal.Decimal    `gorm:"column:price;type:numeric(10,2);not null"`
	HasVariations bool               `gorm:"column:has_variations;not null"`
	Active        bool               `gorm:"column:active;not null"`
	Variations    []ProductVariation `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Stocks        []Stock            `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// SimpleStock returns the null-variation stock row if loaded.
func (p Product) SimpleStock() *Stock {
	for i := range p.Stocks {
		if p.Stocks[i].VariationID == nil {
			return &p.Stocks[i]
		}
	}
	return nil
}

// ProductVariation is a purchasable option of a product.
type ProductVariation struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Name            string          `gorm:"column:name;size:255;not null"`
	PriceAdjustment decimal.Decimal `gorm:"column:price_adjustment;type:numeric(10,2);not null"`
	Active          bool            `gorm:"column:active;not null"`
	Stock           *Stock          `gorm:"foreignKey:VariationID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariation) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// Stock is the available quantity for an exact (product, variation) pair.
type Stock struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	VariationID *uuid.UUID `gorm:"column:variation_id;type:uuid;index"`
	Quantity    int        `gorm:"column:quantity;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Stock) TableName() string { return "stocks" }

func (s *Stock) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
