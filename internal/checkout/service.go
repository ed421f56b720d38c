package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medibook/medibook-backend/internal/cart"
	"github.com/medibook/medibook-backend/pkg/db/models"
	"github.com/medibook/medibook-backend/pkg/enums"
	pkgerrors "github.com/medibook/medibook-backend/pkg/errors"
	"github.com/medibook/medibook-backend/pkg/outbox"
	"github.com/medibook/medibook-backend/pkg/outbox/payloads"
	"github.com/medibook/medibook-backend/pkg/pagination"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = pagination.MaxLimit
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ListResult is one page of submissions plus the cursor for the next page.
type ListResult struct {
	Submissions []models.CheckoutSubmission
	NextCursor  string
}

// Service records checkout payloads and exposes them back to their owner.
type Service interface {
	Submit(ctx context.Context, ownerID string, payload cart.CheckoutPayload) (*models.CheckoutSubmission, error)
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*models.CheckoutSubmission, error)
	List(ctx context.Context, ownerID string, params pagination.Params) (*ListResult, error)
}

type service struct {
	tx     txRunner
	repo   Repository
	events eventEmitter
	now    func() time.Time
}

// NewService builds the checkout submission service. Every submission is
// written together with a checkout_submitted outbox event.
func NewService(tx txRunner, repo Repository, events eventEmitter) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{tx: tx, repo: repo, events: events, now: time.Now}, nil
}

func (s *service) Submit(ctx context.Context, ownerID string, payload cart.CheckoutPayload) (*models.CheckoutSubmission, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if len(payload.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items selected")
	}

	now := s.now().UTC()
	submission := &models.CheckoutSubmission{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Status:    enums.SubmissionStatusSubmitted,
		Currency:  enums.CurrencyVND,
		TotalVND:  payload.Total,
		Items:     make([]models.SubmissionItem, len(payload.Items)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	event := payloads.CheckoutSubmittedEvent{
		SubmissionID: submission.ID,
		OwnerID:      ownerID,
		Currency:     submission.Currency,
		Total:        payload.Total,
		Items:        make([]payloads.CheckoutItem, len(payload.Items)),
	}
	for i, item := range payload.Items {
		submission.Items[i] = models.SubmissionItem{
			ItemReference: item.ItemReference,
			ItemName:      item.ItemName,
			Quantity:      item.Quantity,
			PriceVND:      item.Price,
		}
		event.Items[i] = payloads.CheckoutItem{
			ItemReference: item.ItemReference,
			ItemName:      item.ItemName,
			Quantity:      item.Quantity,
			Price:         item.Price,
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, submission); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCheckoutSubmitted,
			AggregateType: enums.AggregateCheckoutSubmission,
			AggregateID:   submission.ID,
			Actor:         &outbox.ActorRef{UserID: ownerID, OwnerID: ownerID},
			Data:          event,
			OccurredAt:    now,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record checkout submission")
	}
	return submission, nil
}

func (s *service) Get(ctx context.Context, ownerID string, id uuid.UUID) (*models.CheckoutSubmission, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission id required")
	}
	submission, err := s.repo.FindByID(ctx, id, strings.TrimSpace(ownerID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout submission")
	}
	if submission == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout submission not found")
	}
	return submission, nil
}

func (s *service) List(ctx context.Context, ownerID string, params pagination.Params) (*ListResult, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = pagination.NormalizeLimit(limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListByOwner(ctx, ownerID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list checkout submissions")
	}

	result := &ListResult{Submissions: rows}
	if len(rows) > limit {
		result.Submissions = rows[:limit]
		last := result.Submissions[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	if result.Submissions == nil {
		result.Submissions = []models.CheckoutSubmission{}
	}
	return result, nil
}
