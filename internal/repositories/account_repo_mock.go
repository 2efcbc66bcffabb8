package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sweetshop/internal/models"

	"github.com/google/uuid"
)

// MockAccountRepository is an in-memory implementation of AccountRepository.
type MockAccountRepository struct {
	accounts map[string]models.Account
	mu       sync.RWMutex
}

// NewMockAccountRepository creates a new instance of MockAccountRepository.
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]models.Account),
	}
}

// Create adds a new account, enforcing email uniqueness.
func (r *MockAccountRepository) Create(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return fmt.Errorf("account %s: %w", account.Email, ErrDuplicateEmail)
		}
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.accounts[account.ID] = *account
	return nil
}

// Update replaces an existing account.
func (r *MockAccountRepository) Update(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.ID]; !ok {
		return fmt.Errorf("account with ID %s for update: %w", account.ID, ErrNotFound)
	}
	account.UpdatedAt = time.Now()
	r.accounts[account.ID] = *account
	return nil
}

// GetByEmail returns the account registered under email.
func (r *MockAccountRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if account.Email == email {
			return &account, nil
		}
	}
	return nil, fmt.Errorf("account with email %s: %w", email, ErrNotFound)
}

// GetByID returns an account by its ID.
func (r *MockAccountRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account with ID %s: %w", id, ErrNotFound)
	}
	return &account, nil
}
