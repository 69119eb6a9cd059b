package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one food type with its ingredient snapshot inside an order draft.
type LineItem struct {
	FoodType            int64   `json:"food_type"`
	SelectedIngredients []int64 `json:"selected_ingredients"`
	IngredientsOrder    []int64 `json:"ingredients_order"`
}

// OrderDraft is built at submit time and sent once; it is never stored locally.
type OrderDraft struct {
	CustomerName string
	Phone        string
	Address      string
	Notes        string
	TotalPrice   decimal.Decimal
	Items        []LineItem
}

// MarshalJSON renders the payload expected by POST /orders/. total_price is a
// string with exactly two decimals.
func (d OrderDraft) MarshalJSON() ([]byte, error) {
	items := d.Items
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(struct {
		CustomerName string     `json:"customer_name"`
		Phone        string     `json:"phone_number"`
		Address      string     `json:"address"`
		Notes        string     `json:"notes"`
		TotalPrice   string     `json:"total_price"`
		Items        []LineItem `json:"items"`
	}{
		CustomerName: d.CustomerName,
		Phone:        d.Phone,
		Address:      d.Address,
		Notes:        d.Notes,
		TotalPrice:   d.TotalPrice.StringFixed(2),
		Items:        items,
	})
}

// Order is a past order as returned by GET /orders/.
type Order struct {
	ID           int64           `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone_number"`
	Address      string          `json:"address"`
	Notes        string          `json:"notes"`
	Items        []OrderItem     `json:"items"`
}

type OrderItem struct {
	ID                  int64        `json:"id"`
	FoodType            FoodType     `json:"food_type"`
	SelectedIngredients []Ingredient `json:"selected_ingredients"`
	IngredientsOrder    []int64      `json:"ingredients_order"`
}

// OrderedIngredients returns the item's ingredients in serve order. Entries of
// IngredientsOrder that are not among the selected ingredients are skipped.
func (it *OrderItem) OrderedIngredients() []Ingredient {
	if len(it.IngredientsOrder) == 0 {
		return it.SelectedIngredients
	}
	byID := make(map[int64]Ingredient, len(it.SelectedIngredients))
	for _, ing := range it.SelectedIngredients {
		byID[ing.ID] = ing
	}
	out := make([]Ingredient, 0, len(it.IngredientsOrder))
	for _, id := range it.IngredientsOrder {
		if ing, ok := byID[id]; ok {
			out = append(out, ing)
		}
	}
	return out
}

// ReorderIDs returns the ingredient ids to restore a build from this item.
func (it *OrderItem) ReorderIDs() []int64 {
	if len(it.IngredientsOrder) > 0 {
		return append([]int64(nil), it.IngredientsOrder...)
	}
	ids := make([]int64, 0, len(it.SelectedIngredients))
	for _, ing := range it.SelectedIngredients {
		ids = append(ids, ing.ID)
	}
	return ids
}

// ReorderPayload is the one-shot hand-off from order history to the builder.
type ReorderPayload struct {
	FoodTypeID    int64   `json:"foodTypeId"`
	IngredientIDs []int64 `json:"selectedIngredients"`
}
