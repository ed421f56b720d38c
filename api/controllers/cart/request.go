package cart

import (
	cartdto "github.com/medibook/medibook-backend/api/controllers/cart/dto"
	"github.com/medibook/medibook-backend/api/validators"
	cartsvc "github.com/medibook/medibook-backend/internal/cart"
)

func toLineInput(payload cartdto.AddItemRequest) cartsvc.LineInput {
	input := cartsvc.LineInput{
		ProductID:   validators.SanitizeString(payload.ProductID, 64),
		VariantUnit: validators.SanitizeString(payload.VariantUnit, 32),
		Name:        validators.SanitizeString(payload.Name, 200),
		Image:       validators.SanitizeString(payload.Image, 2048),
		SalePrice:   payload.SalePrice,
		Quantity:    payload.Quantity,
	}
	if payload.UnitPrice != nil {
		input.UnitPrice = *payload.UnitPrice
	}
	return input
}
