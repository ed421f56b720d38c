package cart

import (
	cartdto "github.com/medibook/medibook-backend/api/controllers/cart/dto"
	cartsvc "github.com/medibook/medibook-backend/internal/cart"
	"github.com/medibook/medibook-backend/pkg/db/models"
	"github.com/medibook/medibook-backend/pkg/enums"
)

func newCart(view *cartsvc.View) cartdto.Cart {
	items := make([]cartdto.CartLine, 0, len(view.Lines))
	for _, line := range view.Lines {
		effective := line.EffectivePrice()
		items = append(items, cartdto.CartLine{
			ProductID:      line.ProductID,
			VariantUnit:    line.VariantUnit,
			Name:           line.Name,
			Image:          line.Image,
			UnitPrice:      line.UnitPrice,
			SalePrice:      line.SalePrice,
			EffectivePrice: effective,
			Quantity:       line.Quantity,
			Selected:       line.Selected,
			LineTotal:      effective * int64(line.Quantity),
		})
	}
	return cartdto.Cart{
		OwnerID:     view.OwnerID,
		Currency:    enums.CurrencyVND.String(),
		Items:       items,
		AllSelected: view.AllSelected,
		Totals:      NewTotals(view.Totals),
	}
}

// NewTotals renders totals with VND display strings.
func NewTotals(totals cartsvc.Totals) cartdto.CartTotals {
	return cartdto.CartTotals{
		Original:          totals.Original,
		Final:             totals.Final,
		Discount:          totals.Discount,
		DiscountPercent:   totals.DiscountPercent().StringFixed(2),
		SelectedCount:     totals.SelectedCount,
		OriginalFormatted: cartsvc.FormatVND(totals.Original),
		FinalFormatted:    cartsvc.FormatVND(totals.Final),
		DiscountFormatted: cartsvc.FormatVND(totals.Discount),
	}
}

// NewSubmission renders a stored checkout submission.
func NewSubmission(submission *models.CheckoutSubmission) cartdto.Submission {
	items := make([]cartdto.SubmissionItem, 0, len(submission.Items))
	for _, item := range submission.Items {
		items = append(items, cartdto.SubmissionItem{
			ItemReference: item.ItemReference,
			ItemName:      item.ItemName,
			Quantity:      item.Quantity,
			Price:         item.PriceVND,
		})
	}
	return cartdto.Submission{
		ID:             submission.ID,
		Status:         submission.Status.String(),
		Currency:       submission.Currency.String(),
		Total:          submission.TotalVND,
		TotalFormatted: cartsvc.FormatVND(submission.TotalVND),
		Items:          items,
		CreatedAt:      submission.CreatedAt,
	}
}
