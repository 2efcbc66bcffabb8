package repositories

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"sweetshop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMSweetRepository is a GORM implementation of SweetRepository.
type GORMSweetRepository struct {
	db *gorm.DB
}

// NewGORMSweetRepository creates a new instance of GORMSweetRepository.
func NewGORMSweetRepository(db *gorm.DB) *GORMSweetRepository {
	return &GORMSweetRepository{
		db: db,
	}
}

// GetAll retrieves all sweets from the database.
func (r *GORMSweetRepository) GetAll(ctx context.Context) ([]models.Sweet, error) {
	var sweets []models.Sweet
	if err := r.db.WithContext(ctx).Order("created_at").Find(&sweets).Error; err != nil {
		return nil, fmt.Errorf("failed to get all sweets: %w", err)
	}
	return sweets, nil
}

// Search retrieves the sweets matching every supplied filter field.
func (r *GORMSweetRepository) Search(ctx context.Context, filter models.SweetFilter) ([]models.Sweet, error) {
	lower := "LOWER"
	if r.db.Dialector.Name() == "sqlite" {
		lower = "unicode_lower"
	}

	q := r.db.WithContext(ctx).Model(&models.Sweet{})
	if filter.Name != "" {
		q = q.Where(lower+`(name) LIKE ? ESCAPE '\'`, likePattern(filter.Name))
	}
	if filter.Category != "" {
		q = q.Where(lower+`(category) LIKE ? ESCAPE '\'`, likePattern(filter.Category))
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}

	var sweets []models.Sweet
	if err := q.Order("created_at").Find(&sweets).Error; err != nil {
		return nil, fmt.Errorf("failed to search sweets: %w", err)
	}
	return sweets, nil
}

// GetByID retrieves a single sweet by its ID from the database.
func (r *GORMSweetRepository) GetByID(ctx context.Context, id string) (*models.Sweet, error) {
	var sweet models.Sweet
	if err := r.db.WithContext(ctx).First(&sweet, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sweet with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sweet by ID %s: %w", id, err)
	}
	return &sweet, nil
}

// Create creates a new sweet in the database.
func (r *GORMSweetRepository) Create(ctx context.Context, sweet *models.Sweet) error {
	if sweet.ID == "" {
		sweet.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(sweet).Error; err != nil {
		return fmt.Errorf("failed to create sweet: %w", err)
	}
	return nil
}

// Update writes every field of an existing sweet.
func (r *GORMSweetRepository) Update(ctx context.Context, sweet *models.Sweet) error {
	sweet.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Sweet{}).Where("id = ?", sweet.ID).
		Updates(map[string]interface{}{
			"name":       sweet.Name,
			"category":   sweet.Category,
			"price":      sweet.Price,
			"quantity":   sweet.Quantity,
			"updated_at": sweet.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update sweet: %w", res.Error)
	}
	// Save would insert a missing row, so updates go through Updates and
	// an unmatched ID surfaces as zero affected rows.
	if res.RowsAffected == 0 {
		return fmt.Errorf("sweet with ID %s for update: %w", sweet.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a sweet by its ID from the database.
func (r *GORMSweetRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Sweet{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete sweet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sweet with ID %s for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// AdjustQuantity applies delta with a conditional UPDATE so concurrent
// purchases cannot oversell. The guard compares quantity against a bound
// instead of evaluating quantity + delta, which overflows for large deltas.
func (r *GORMSweetRepository) AdjustQuantity(ctx context.Context, id string, delta int) (*models.Sweet, error) {
	var sweet models.Sweet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guarded := tx.Model(&models.Sweet{}).Where("id = ?", id)
		if delta < 0 {
			guarded = guarded.Where("quantity >= ?", -delta)
		} else {
			guarded = guarded.Where("quantity <= ?", math.MaxInt64-int64(delta))
		}
		res := guarded.
			Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity + ?", delta),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to adjust quantity of sweet %s: %w", id, res.Error)
		}

		if err := tx.First(&sweet, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("sweet with ID %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to reload sweet %s: %w", id, err)
		}
		if res.RowsAffected == 0 {
			if delta > 0 {
				return fmt.Errorf("sweet %s has %d in stock, cannot add %d: %w", id, sweet.Quantity, delta, ErrStockOverflow)
			}
			return fmt.Errorf("sweet %s has %d in stock, cannot apply %d: %w", id, sweet.Quantity, delta, ErrInsufficientStock)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sweet, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(substr string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(substr)) + "%"
}
