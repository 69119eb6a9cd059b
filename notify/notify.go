// Package notify fans out "order placed" events after a successful checkout.
package notify

import (
	"context"
	"time"
)

const RoutingKeyOrderPlaced = "order.placed"

// OrderPlaced describes a checkout the API accepted.
type OrderPlaced struct {
	OrderID       int64     `json:"order_id,omitempty"`
	ChatID        int64     `json:"chat_id"`
	FoodTypeID    int64     `json:"food_type_id"`
	IngredientIDs []int64   `json:"ingredient_ids"`
	TotalPrice    string    `json:"total_price"`
	Guest         bool      `json:"guest"`
	PlacedAt      time.Time `json:"placed_at"`
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
