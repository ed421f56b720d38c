package cartdto

// AddItemRequest is the portal's add-to-cart payload. Amounts are whole VND.
type AddItemRequest struct {
	ProductID   string `json:"product_id" validate:"required,max=64,excludes=:"`
	VariantUnit string `json:"variant_unit" validate:"required,max=32,excludes=:"`
	Name        string `json:"name" validate:"required,max=200"`
	Image       string `json:"image,omitempty" validate:"omitempty,url,max=2048"`
	UnitPrice   *int64 `json:"unit_price" validate:"required,min=0,max=10000000000"`
	// SalePrice is omitted when the product has no promotion; 0 is a real price.
	SalePrice *int64 `json:"sale_price,omitempty" validate:"omitempty,min=0,max=10000000000"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=999"`
}

// UpdateQuantityRequest replaces a line quantity. Values <= 0 leave the line untouched.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"max=999"`
}

// SelectionRequest toggles the checkout flag on one line or on every line.
type SelectionRequest struct {
	Selected *bool `json:"selected" validate:"required"`
}
