package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"sweetshop/internal/models"
	"sweetshop/internal/repositories"
)

// SweetUpdate carries the fields of a partial update. Nil fields are left
// unchanged.
type SweetUpdate struct {
	Name     *string
	Category *string
	Price    *float64
	Quantity *int
}

// SweetService handles business logic related to sweets and their stock.
type SweetService struct {
	repo              repositories.SweetRepository
	publisher         EventPublisher
	lowStockThreshold int
}

// NewSweetService creates a new SweetService. publisher may be nil, in which
// case stock events are not emitted.
func NewSweetService(repo repositories.SweetRepository, publisher EventPublisher, lowStockThreshold int) *SweetService {
	return &SweetService{
		repo:              repo,
		publisher:         publisher,
		lowStockThreshold: lowStockThreshold,
	}
}

// GetAllSweets retrieves all sweets.
func (s *SweetService) GetAllSweets(ctx context.Context) ([]models.Sweet, error) {
	return s.repo.GetAll(ctx)
}

// SearchSweets retrieves the sweets matching every field of filter.
func (s *SweetService) SearchSweets(ctx context.Context, filter models.SweetFilter) ([]models.Sweet, error) {
	if filter.IsEmpty() {
		return nil, ErrEmptySearch
	}
	return s.repo.Search(ctx, filter)
}

// GetSweetByID retrieves a single sweet by its ID.
func (s *SweetService) GetSweetByID(ctx context.Context, id string) (*models.Sweet, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateSweet stores a new sweet.
func (s *SweetService) CreateSweet(ctx context.Context, sweet *models.Sweet) error {
	if sweet.Price < 0 || sweet.Quantity < 0 {
		return fmt.Errorf("%w: price and quantity must not be negative", ErrInvalidArgument)
	}
	if err := s.repo.Create(ctx, sweet); err != nil {
		return err
	}
	s.publish(models.NewStockEvent(models.EventSweetCreated, sweet, sweet.Quantity))
	return nil
}

// UpdateSweet applies a partial update and returns the stored result.
func (s *SweetService) UpdateSweet(ctx context.Context, id string, upd SweetUpdate) (*models.Sweet, error) {
	sweet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		sweet.Name = *upd.Name
	}
	if upd.Category != nil {
		sweet.Category = *upd.Category
	}
	if upd.Price != nil {
		if *upd.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
		}
		sweet.Price = *upd.Price
	}
	if upd.Quantity != nil {
		if *upd.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidArgument)
		}
		sweet.Quantity = *upd.Quantity
	}
	if err := s.repo.Update(ctx, sweet); err != nil {
		return nil, err
	}
	return sweet, nil
}

// DeleteSweet deletes a sweet by its ID.
func (s *SweetService) DeleteSweet(ctx context.Context, id string) error {
	sweet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(models.NewStockEvent(models.EventSweetDeleted, sweet, -sweet.Quantity))
	return nil
}

// PurchaseSweet takes qty units out of stock.
func (s *SweetService) PurchaseSweet(ctx context.Context, id string, qty int) (*models.Sweet, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: purchase quantity must be > 0", ErrInvalidArgument)
	}
	sweet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if qty > sweet.Quantity {
		return nil, fmt.Errorf("requested %d of %q, %d available: %w", qty, sweet.Name, sweet.Quantity, ErrInsufficientStock)
	}

	// The repository re-checks the guard in the same write, so a concurrent
	// purchase between GetByID and here still cannot oversell.
	updated, err := s.repo.AdjustQuantity(ctx, id, -qty)
	if err != nil {
		return nil, err
	}

	s.publish(models.NewStockEvent(models.EventSweetPurchased, updated, -qty))
	if updated.Quantity <= s.lowStockThreshold {
		s.publish(models.NewStockEvent(models.EventSweetLowStock, updated, -qty))
	}
	return updated, nil
}

// RestockSweet adds amount units to stock.
func (s *SweetService) RestockSweet(ctx context.Context, id string, amount int) (*models.Sweet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: restock amount must be > 0", ErrInvalidArgument)
	}
	updated, err := s.repo.AdjustQuantity(ctx, id, amount)
	if errors.Is(err, repositories.ErrStockOverflow) {
		return nil, fmt.Errorf("%w: restock amount %d exceeds the stock limit", ErrInvalidArgument, amount)
	}
	if err != nil {
		return nil, err
	}
	s.publish(models.NewStockEvent(models.EventSweetRestocked, updated, amount))
	return updated, nil
}

func (s *SweetService) publish(event models.StockEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event.Type, event); err != nil {
		log.Printf("Warning: failed to publish %s event for sweet %s: %v", event.Type, event.SweetID, err)
	}
}
