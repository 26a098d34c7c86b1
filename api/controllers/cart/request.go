package cart

import (
	cartdto "github.com/angelmondragon/storefront-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront-backend/internal/cart"
)

func toAddItemInput(payload cartdto.AddItemRequest) cart.AddItemInput {
	return cart.AddItemInput{
		ProductID:   payload.ProductID,
		VariationID: payload.VariationID,
		Quantity:    payload.Quantity,
	}
}
