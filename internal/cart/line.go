package cart

import "strings"

// Bounds on a single line. With both at their maximum a line total stays far
// below the int64 range even across a full cart.
const (
	MaxQuantity  = 999
	MaxUnitPrice = int64(10_000_000_000)
)

// KeySeparator joins the key parts in an item reference; neither part may contain it.
const KeySeparator = ":"

// Key identifies a cart line. A product sold in several packaging units
// (box, blister, bottle) occupies one line per unit.
type Key struct {
	ProductID   string `json:"product_id"`
	VariantUnit string `json:"variant_unit"`
}

// NewKey trims both parts so path and body inputs address the same line.
func NewKey(productID, variantUnit string) Key {
	return Key{
		ProductID:   strings.TrimSpace(productID),
		VariantUnit: strings.TrimSpace(variantUnit),
	}
}

// String renders the key as the order item reference handed to checkout.
func (k Key) String() string {
	return k.ProductID + KeySeparator + k.VariantUnit
}

// Line is one purchasable entry held in a cart. Amounts are whole VND.
type Line struct {
	ProductID   string `json:"product_id"`
	VariantUnit string `json:"variant_unit"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	// SalePrice is nil when the product has no promotion. A present value
	// of 0 is a real (free) promotional price.
	SalePrice *int64 `json:"sale_price,omitempty"`
	Quantity  int    `json:"quantity"`
	Selected  bool   `json:"selected"`
}

// Key returns the identity of the line.
func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, VariantUnit: l.VariantUnit}
}

// HasValidSale reports whether the sale price applies.
func (l Line) HasValidSale() bool {
	return l.SalePrice != nil && *l.SalePrice < l.UnitPrice
}

// EffectivePrice is the unit price actually charged.
func (l Line) EffectivePrice() int64 {
	if l.HasValidSale() {
		return *l.SalePrice
	}
	return l.UnitPrice
}

func (l Line) clone() Line {
	if l.SalePrice != nil {
		sale := *l.SalePrice
		l.SalePrice = &sale
	}
	return l
}

// Price returns a pointer to v, for building optional sale prices.
func Price(v int64) *int64 {
	return &v
}
