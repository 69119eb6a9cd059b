package builder

import (
	"errors"

	"github.com/shopspring/decimal"

	"food-builder/models"
)

// ErrNotPermutation is returned by Reorder when the new order does not hold
// exactly the currently selected ingredients.
var ErrNotPermutation = errors.New("new order is not a permutation of the selection")

// Selection is the ordered, duplicate-free list of ingredient ids chosen for
// the food being built. Order is serve order.
type Selection struct {
	ids []int64
}

// Initialize seeds the selection with the default ingredients, in list order.
func (s *Selection) Initialize(ingredients []models.Ingredient) {
	s.ids = s.ids[:0]
	for _, ing := range ingredients {
		if ing.IsDefault {
			s.ids = append(s.ids, ing.ID)
		}
	}
}

// RestoreFrom replaces the selection with ids from an earlier order. Ids the
// current ingredient list does not know are dropped, duplicates keep their
// first position, and defaults missing from ids are appended.
func (s *Selection) RestoreFrom(ids []int64, ingredients []models.Ingredient) {
	known := make(map[int64]models.Ingredient, len(ingredients))
	for _, ing := range ingredients {
		known[ing.ID] = ing
	}

	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	for _, ing := range ingredients {
		if ing.IsDefault && !seen[ing.ID] {
			seen[ing.ID] = true
			out = append(out, ing.ID)
		}
	}
	s.ids = out
}

// Toggle adds an unselected ingredient at the end or removes a selected one.
// Defaults and unknown ids are ignored. It reports whether anything changed.
func (s *Selection) Toggle(id int64, ingredients []models.Ingredient) bool {
	ing, ok := find(ingredients, id)
	if !ok || ing.IsDefault {
		return false
	}
	if i := s.index(id); i >= 0 {
		s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
		return true
	}
	s.ids = append(s.ids, id)
	return true
}

// Reorder replaces the order wholesale. ids must contain exactly the current
// selection; otherwise nothing changes.
func (s *Selection) Reorder(ids []int64) error {
	if len(ids) != len(s.ids) {
		return ErrNotPermutation
	}
	want := make(map[int64]bool, len(s.ids))
	for _, id := range s.ids {
		want[id] = true
	}
	for _, id := range ids {
		if !want[id] {
			return ErrNotPermutation
		}
		delete(want, id)
	}
	s.ids = append([]int64(nil), ids...)
	return nil
}

// MoveUp swaps id with its predecessor. No-op at the top or when absent.
func (s *Selection) MoveUp(id int64) bool {
	i := s.index(id)
	if i <= 0 {
		return false
	}
	return s.swap(i, i-1)
}

// MoveDown swaps id with its successor. No-op at the bottom or when absent.
func (s *Selection) MoveDown(id int64) bool {
	i := s.index(id)
	if i < 0 || i == len(s.ids)-1 {
		return false
	}
	return s.swap(i, i+1)
}

func (s *Selection) swap(i, j int) bool {
	next := s.IDs()
	next[i], next[j] = next[j], next[i]
	return s.Reorder(next) == nil
}

// Total is the base price plus every selected non-default ingredient. Ids
// not in the food type's list contribute nothing.
func (s *Selection) Total(ft *models.FoodType) decimal.Decimal {
	if ft == nil {
		return decimal.Zero
	}
	total := ft.BasePrice
	for _, ing := range ft.Ingredients {
		if !ing.IsDefault && s.Contains(ing.ID) {
			total = total.Add(ing.Price)
		}
	}
	return total
}

// IDs returns a copy of the selection in order.
func (s *Selection) IDs() []int64 {
	return append([]int64{}, s.ids...)
}

func (s *Selection) Contains(id int64) bool {
	return s.index(id) >= 0
}

func (s *Selection) Len() int {
	return len(s.ids)
}

func (s *Selection) index(id int64) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}

func find(ingredients []models.Ingredient, id int64) (models.Ingredient, bool) {
	for _, ing := range ingredients {
		if ing.ID == id {
			return ing, true
		}
	}
	return models.Ingredient{}, false
}
