package services

import (
	"errors"

	"sweetshop/internal/repositories"
)

var (
	// ErrNotFound is returned when the addressed sweet or account does not exist.
	ErrNotFound = repositories.ErrNotFound
	// ErrInsufficientStock is returned when a purchase exceeds the available quantity.
	ErrInsufficientStock = repositories.ErrInsufficientStock
	// ErrInvalidArgument is returned for non-positive purchase or restock amounts.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEmptySearch is returned when a search supplies no filter at all.
	ErrEmptySearch = errors.New("at least one search filter is required")
	// ErrEmailTaken is returned when registering an email that is already in use.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials is returned for both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for malformed, tampered or expired tokens.
	ErrInvalidToken = errors.New("invalid token")
)
