package cart

import (
	cartdto "github.com/angelmondragon/storefront-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func newCartResponse(record *models.Cart) cartdto.Cart {
	items := make([]cartdto.CartItem, 0, len(record.Items))
	count := 0
	for i, item := range record.Items {
		count += item.Quantity
		items = append(items, cartdto.CartItem{
			Index:         i,
			ProductID:     item.ProductID,
			VariationID:   item.VariationID,
			Name:          item.DisplayName(),
			ProductName:   item.ProductName,
			VariationName: item.VariationName,
			Quantity:      item.Quantity,
			Price:         item.Price,
			Total:         item.LineTotal(),
		})
	}

	return cartdto.Cart{
		Token:      record.Token,
		Items:      items,
		ItemCount:  count,
		CouponCode: record.CouponCode,
		Subtotal:   record.Subtotal,
		Discount:   record.Discount,
		Shipping:   record.Shipping,
		Total:      record.Total,
	}
}
