package payloads

import (
	"github.com/google/uuid"

	"github.com/medibook/medibook-backend/pkg/enums"
)

// CheckoutItem is one order line of a submitted checkout.
type CheckoutItem struct {
	ItemReference string `json:"item_reference"`
	ItemName      string `json:"item_name"`
	Quantity      int    `json:"quantity"`
	Price         int64  `json:"price"`
}

// CheckoutSubmittedEvent tells the payment collaborator a cart was checked out.
type CheckoutSubmittedEvent struct {
	SubmissionID uuid.UUID      `json:"submission_id"`
	OwnerID      string         `json:"owner_id"`
	Currency     enums.Currency `json:"currency"`
	Total        int64          `json:"total"`
	Items        []CheckoutItem `json:"items"`
}
