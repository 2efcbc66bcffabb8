package models

import "time"

// Stock event types, also used as broker routing keys.
const (
	EventSweetCreated   = "sweet.created"
	EventSweetPurchased = "sweet.purchased"
	EventSweetRestocked = "sweet.restocked"
	EventSweetDeleted   = "sweet.deleted"
	EventSweetLowStock  = "sweet.low_stock"
)

// StockEvent is published whenever the stock of a sweet changes.
type StockEvent struct {
	Type       string    `json:"type"`
	SweetID    string    `json:"sweetId"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Quantity   int       `json:"quantity"`
	Delta      int       `json:"delta"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewStockEvent builds an event snapshot of s.
func NewStockEvent(eventType string, s *Sweet, delta int) StockEvent {
	return StockEvent{
		Type:       eventType,
		SweetID:    s.ID,
		Name:       s.Name,
		Category:   s.Category,
		Quantity:   s.Quantity,
		Delta:      delta,
		OccurredAt: time.Now().UTC(),
	}
}
