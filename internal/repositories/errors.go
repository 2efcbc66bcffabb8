package repositories

import "errors"

var (
	// ErrNotFound is returned when no record matches the given identity.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock is returned when a quantity adjustment would drive stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStockOverflow is returned when a quantity adjustment would exceed the largest storable stock.
	ErrStockOverflow = errors.New("stock overflow")
	// ErrDuplicateEmail is returned when an account with the same email already exists.
	ErrDuplicateEmail = errors.New("email already registered")
)
