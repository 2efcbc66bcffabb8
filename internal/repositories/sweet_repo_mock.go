package repositories

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"sweetshop/internal/models"

	"github.com/google/uuid"
)

// MockSweetRepository is an in-memory implementation of SweetRepository.
type MockSweetRepository struct {
	sweets map[string]models.Sweet
	mu     sync.RWMutex
}

// NewMockSweetRepository creates a new instance of MockSweetRepository.
func NewMockSweetRepository() *MockSweetRepository {
	return &MockSweetRepository{
		sweets: make(map[string]models.Sweet),
	}
}

// GetAll returns all sweets ordered by creation time.
func (r *MockSweetRepository) GetAll(ctx context.Context) ([]models.Sweet, error) {
	return r.Search(ctx, models.SweetFilter{})
}

// Search returns the sweets matching filter.
func (r *MockSweetRepository) Search(_ context.Context, filter models.SweetFilter) ([]models.Sweet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sweetList := make([]models.Sweet, 0, len(r.sweets))
	for _, s := range r.sweets {
		if filter.Matches(s) {
			sweetList = append(sweetList, s)
		}
	}
	sort.Slice(sweetList, func(i, j int) bool {
		return sweetList[i].CreatedAt.Before(sweetList[j].CreatedAt)
	})
	return sweetList, nil
}

// GetByID returns a sweet by its ID.
func (r *MockSweetRepository) GetByID(_ context.Context, id string) (*models.Sweet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sweet, ok := r.sweets[id]
	if !ok {
		return nil, fmt.Errorf("sweet with ID %s: %w", id, ErrNotFound)
	}
	return &sweet, nil
}

// Create adds a new sweet.
func (r *MockSweetRepository) Create(_ context.Context, sweet *models.Sweet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sweet.ID == "" {
		sweet.ID = uuid.New().String()
	}
	now := time.Now()
	sweet.CreatedAt = now
	sweet.UpdatedAt = now
	r.sweets[sweet.ID] = *sweet
	return nil
}

// Update modifies an existing sweet.
func (r *MockSweetRepository) Update(_ context.Context, sweet *models.Sweet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.sweets[sweet.ID]
	if !ok {
		return fmt.Errorf("sweet with ID %s for update: %w", sweet.ID, ErrNotFound)
	}
	sweet.CreatedAt = existing.CreatedAt
	sweet.UpdatedAt = time.Now()
	r.sweets[sweet.ID] = *sweet
	return nil
}

// Delete removes a sweet by its ID.
func (r *MockSweetRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sweets[id]; !ok {
		return fmt.Errorf("sweet with ID %s for deletion: %w", id, ErrNotFound)
	}
	delete(r.sweets, id)
	return nil
}

// AdjustQuantity applies delta under the write lock.
func (r *MockSweetRepository) AdjustQuantity(_ context.Context, id string, delta int) (*models.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sweet, ok := r.sweets[id]
	if !ok {
		return nil, fmt.Errorf("sweet with ID %s: %w", id, ErrNotFound)
	}
	if delta > 0 && sweet.Quantity > math.MaxInt-delta {
		return nil, fmt.Errorf("sweet %s has %d in stock, cannot add %d: %w", id, sweet.Quantity, delta, ErrStockOverflow)
	}
	if sweet.Quantity+delta < 0 {
		return nil, fmt.Errorf("sweet %s has %d in stock, cannot apply %d: %w", id, sweet.Quantity, delta, ErrInsufficientStock)
	}
	sweet.Quantity += delta
	sweet.UpdatedAt = time.Now()
	r.sweets[id] = sweet
	return &sweet, nil
}
