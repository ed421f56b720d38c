package cart

// OrderItem is one record of the checkout handoff.
type OrderItem struct {
	ItemReference string `json:"item_reference"`
	ItemName      string `json:"item_name"`
	Quantity      int    `json:"quantity"`
	// Price is the effective unit price.
	Price int64 `json:"price"`
}

// CheckoutPayload is what the payment/booking step receives.
type CheckoutPayload struct {
	Items []OrderItem `json:"items"`
	Total int64       `json:"total"`
}

// BuildCheckoutPayload maps the selected lines, in cart order, to order items.
// Total always equals ComputeTotals(lines).Final.
func BuildCheckoutPayload(lines []Line) CheckoutPayload {
	payload := CheckoutPayload{Items: []OrderItem{}}
	for _, line := range lines {
		if !line.Selected {
			continue
		}
		payload.Items = append(payload.Items, OrderItem{
			ItemReference: line.Key().String(),
			ItemName:      line.Name,
			Quantity:      line.Quantity,
			Price:         line.EffectivePrice(),
		})
	}
	payload.Total = ComputeTotals(lines).Final
	return payload
}
