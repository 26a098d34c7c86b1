package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductInput is the admin payload for creating or replacing a product.
// Without variations StockQuantity seeds the single stock row; with
// variations every entry carries its own stock.
type ProductInput struct {
	Name          string           `json:"name" validate:"required,max=255"`
	Description   *string          `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	HasVariations bool             `json:"has_variations"`
	Active        *bool            `json:"active,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	Variations    []VariationInput `json:"variations,omitempty" validate:"dive"`
}

// VariationInput describes one variation. A nil ID creates a new one.
type VariationInput struct {
	ID              *uuid.UUID      `json:"id,omitempty"`
	Name            string          `json:"name" validate:"required,max=255"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	StockQuantity   int             `json:"stock_quantity" validate:"min=0"`
	Active          *bool           `json:"active,omitempty"`
}

// ProductDTO is the catalog view of a product.
type ProductDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	HasVariations bool            `json:"has_variations"`
	Active        bool            `json:"active"`
	IsAvailable   bool            `json:"is_available"`
	TotalStock    int             `json:"total_stock"`
	Variations    []VariationDTO  `json:"variations"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// VariationDTO carries the per-variation price and stock.
type VariationDTO struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	Active          bool            `json:"active"`
	StockQuantity   int             `json:"stock_quantity"`
	IsAvailable     bool            `json:"is_available"`
}

// NewProductDTO derives availability from the loaded stock rows. Products
// with variations count only variation rows; simple products only the
// null-variation row.
func NewProductDTO(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		HasVariations: p.HasVariations,
		Active:        p.Active,
		Variations:    []VariationDTO{},
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}

	stockByVariation := map[uuid.UUID]int{}
	for _, row := range p.Stocks {
		switch {
		case row.VariationID == nil && !p.HasVariations:
			dto.TotalStock += row.Quantity
		case row.VariationID != nil && p.HasVariations:
			dto.TotalStock += row.Quantity
			stockByVariation[*row.VariationID] = row.Quantity
		}
	}
	dto.IsAvailable = dto.TotalStock > 0

	for _, v := range p.Variations {
		qty, ok := stockByVariation[v.ID]
		if !ok && v.Stock != nil {
			qty = v.Stock.Quantity
		}
		dto.Variations = append(dto.Variations, VariationDTO{
			ID:              v.ID,
			Name:            v.Name,
			PriceAdjustment: v.PriceAdjustment,
			FinalPrice:      p.Price.Add(v.PriceAdjustment),
			Active:          v.Active,
			StockQuantity:   qty,
			IsAvailable:     qty > 0,
		})
	}
	return dto
}
