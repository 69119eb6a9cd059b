package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"food-builder/models"
)

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := c.get(ctx, "/categories/", nil, &cats); err != nil {
		return nil, err
	}
	for _, cat := range cats {
		if cat.ID <= 0 || cat.Name == "" {
			return nil, fmt.Errorf("%w: category without id or name", ErrMalformed)
		}
	}
	return cats, nil
}

// FoodTypes lists the food types of one category. The list endpoint may omit
// nested ingredients.
func (c *Client) FoodTypes(ctx context.Context, categoryID int64) ([]models.FoodType, error) {
	q := url.Values{"category": {strconv.FormatInt(categoryID, 10)}}
	var fts []models.FoodType
	if err := c.get(ctx, "/food-types/?"+q.Encode(), nil, &fts); err != nil {
		return nil, err
	}
	for i := range fts {
		if err := validateFoodType(&fts[i]); err != nil {
			return nil, err
		}
	}
	return fts, nil
}

// FoodType fetches one food type with its ingredient list.
func (c *Client) FoodType(ctx context.Context, id int64) (*models.FoodType, error) {
	var ft models.FoodType
	if err := c.get(ctx, "/food-types/"+strconv.FormatInt(id, 10)+"/", nil, &ft); err != nil {
		return nil, err
	}
	if err := validateFoodType(&ft); err != nil {
		return nil, err
	}
	return &ft, nil
}

func validateFoodType(ft *models.FoodType) error {
	if ft.ID <= 0 || ft.Name == "" {
		return fmt.Errorf("%w: food type without id or name", ErrMalformed)
	}
	if ft.BasePrice.IsNegative() {
		return fmt.Errorf("%w: food type %d has negative base price", ErrMalformed, ft.ID)
	}
	seen := make(map[int64]bool, len(ft.Ingredients))
	for _, ing := range ft.Ingredients {
		if ing.ID <= 0 || ing.Name == "" {
			return fmt.Errorf("%w: food type %d has an ingredient without id or name", ErrMalformed, ft.ID)
		}
		if seen[ing.ID] {
			return fmt.Errorf("%w: food type %d lists ingredient %d twice", ErrMalformed, ft.ID, ing.ID)
		}
		if ing.Price.IsNegative() {
			return fmt.Errorf("%w: ingredient %d has negative price", ErrMalformed, ing.ID)
		}
		seen[ing.ID] = true
	}
	return nil
}
