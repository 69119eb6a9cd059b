package models

import "github.com/shopspring/decimal"

type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Ingredient is a topping offered for a food type. Default ingredients are
// always part of the build and their cost is included in the base price.
type Ingredient struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	IsDefault bool            `json:"is_default"`
}

type FoodType struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Image       string          `json:"image"`
	Category    int64           `json:"category"`
	Ingredients []Ingredient    `json:"ingredients"`
}

// Ingredient returns the ingredient with the given id from the food type's list.
func (f *FoodType) Ingredient(id int64) (Ingredient, bool) {
	for _, ing := range f.Ingredients {
		if ing.ID == id {
			return ing, true
		}
	}
	return Ingredient{}, false
}
