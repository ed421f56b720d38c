package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/medibook/medibook-backend/pkg/enums"
)

// SubmissionItem is one order line of a submitted checkout payload.
type SubmissionItem struct {
	ItemReference string `json:"item_reference"`
	ItemName      string `json:"item_name"`
	Quantity      int    `json:"quantity"`
	PriceVND      int64  `json:"price"`
}

// CheckoutSubmission records a checkout payload handed to the payment collaborator.
type CheckoutSubmission struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID   string                 `gorm:"column:owner_id;not null"`
	Status    enums.SubmissionStatus `gorm:"column:status;not null;default:'submitted'"`
	Currency  enums.Currency         `gorm:"column:currency;not null;default:'VND'"`
	TotalVND  int64                  `gorm:"column:total_vnd;not null;default:0"`
	Items     []SubmissionItem       `gorm:"column:items;type:jsonb;serializer:json"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
