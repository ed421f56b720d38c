package cartdto

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one rendered cart line.
type CartLine struct {
	ProductID      string `json:"product_id"`
	VariantUnit    string `json:"variant_unit"`
	Name           string `json:"name"`
	Image          string `json:"image,omitempty"`
	UnitPrice      int64  `json:"unit_price"`
	SalePrice      *int64 `json:"sale_price,omitempty"`
	EffectivePrice int64  `json:"effective_price"`
	Quantity       int    `json:"quantity"`
	Selected       bool   `json:"selected"`
	LineTotal      int64  `json:"line_total"`
}

// CartTotals carries the selected-line totals plus display strings.
type CartTotals struct {
	Original          int64  `json:"original"`
	Final             int64  `json:"final"`
	Discount          int64  `json:"discount"`
	DiscountPercent   string `json:"discount_percent"`
	SelectedCount     int    `json:"selected_count"`
	OriginalFormatted string `json:"original_formatted"`
	FinalFormatted    string `json:"final_formatted"`
	DiscountFormatted string `json:"discount_formatted"`
}

// Cart is the response body of every cart endpoint.
type Cart struct {
	OwnerID     string     `json:"owner_id"`
	Currency    string     `json:"currency"`
	Items       []CartLine `json:"items"`
	AllSelected bool       `json:"all_selected"`
	Totals      CartTotals `json:"totals"`
}

// SubmissionItem mirrors one order item handed to payment.
type SubmissionItem struct {
	ItemReference string `json:"item_reference"`
	ItemName      string `json:"item_name"`
	Quantity      int    `json:"quantity"`
	Price         int64  `json:"price"`
}

// Submission is a recorded checkout handoff.
type Submission struct {
	ID             uuid.UUID        `json:"id"`
	Status         string           `json:"status"`
	Currency       string           `json:"currency"`
	Total          int64            `json:"total"`
	TotalFormatted string           `json:"total_formatted"`
	Items          []SubmissionItem `json:"items"`
	CreatedAt      time.Time        `json:"created_at"`
}
