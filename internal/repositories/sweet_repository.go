package repositories

import (
	"context"

	"sweetshop/internal/models"
)

// SweetRepository defines the interface for sweet data access.
type SweetRepository interface {
	GetAll(ctx context.Context) ([]models.Sweet, error)
	Search(ctx context.Context, filter models.SweetFilter) ([]models.Sweet, error)
	GetByID(ctx context.Context, id string) (*models.Sweet, error)
	Create(ctx context.Context, sweet *models.Sweet) error
	Update(ctx context.Context, sweet *models.Sweet) error
	Delete(ctx context.Context, id string) error
	// AdjustQuantity adds delta (which may be negative) to the stock of a
	// sweet in one guarded write and returns the updated record. It fails
	// with ErrInsufficientStock instead of letting quantity drop below zero.
	AdjustQuantity(ctx context.Context, id string, delta int) (*models.Sweet, error)
}
