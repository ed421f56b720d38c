package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medibook/medibook-backend/internal/repo"
	"github.com/medibook/medibook-backend/pkg/db/models"
	"github.com/medibook/medibook-backend/pkg/pagination"
)

// Repository persists checkout submissions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, submission *models.CheckoutSubmission) error
	FindByID(ctx context.Context, id uuid.UUID, ownerID string) (*models.CheckoutSubmission, error)
	ListByOwner(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) ([]models.CheckoutSubmission, error)
}

type repository struct {
	base repo.Base
}

// NewRepository builds a checkout repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, submission *models.CheckoutSubmission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	return r.base.DB(ctx).Create(submission).Error
}

// FindByID returns nil, nil when no submission with id belongs to ownerID.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID, ownerID string) (*models.CheckoutSubmission, error) {
	var submission models.CheckoutSubmission
	err := r.base.DB(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &submission, nil
}

// ListByOwner returns the newest submissions first, strictly older than
// cursor when one is given.
func (r *repository) ListByOwner(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) ([]models.CheckoutSubmission, error) {
	var rows []models.CheckoutSubmission
	query := r.base.DB(ctx).Where("owner_id = ?", ownerID)
	if cursor != nil {
		createdAt := cursor.CreatedAt.UTC()
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", createdAt, createdAt, cursor.ID)
	}
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
