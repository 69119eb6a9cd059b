// Package builder holds the state of one food build: the fetched food type,
// the ingredient selection and the checkout form.
package builder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"food-builder/logger"
	"food-builder/models"
	"food-builder/notify"
	"food-builder/session"
)

var (
	// ErrNotLoaded is returned while the food type has not been fetched.
	ErrNotLoaded    = errors.New("food type not loaded")
	ErrMissingField = errors.New("missing required field")
)

type Catalog interface {
	FoodType(ctx context.Context, id int64) (*models.FoodType, error)
}

type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, draft models.OrderDraft, auth http.Header) (*models.Order, error)
}

// Auth is the view of the session a builder needs.
type Auth interface {
	AuthHeader() http.Header
	IsAuthenticated() bool
	User() *models.User
}

type Deps struct {
	Catalog   Catalog
	Orders    OrderSubmitter
	Auth      Auth
	Transient *session.Transient
	Publisher notify.Publisher
	Log       *zap.Logger
	// ChatID tags published events.
	ChatID int64
}

// Next tells the caller where to go after a successful submit.
type Next int

const (
	NextHome Next = iota
	NextOrders
)

type Result struct {
	Next  Next
	Order *models.Order // nil when the API did not echo the order
	Draft models.OrderDraft
}

// Form is the customer contact part of an order.
type Form struct {
	CustomerName string
	Phone        string
	Address      string
	Notes        string
}

func (f Form) trimmed() Form {
	return Form{
		CustomerName: strings.TrimSpace(f.CustomerName),
		Phone:        strings.TrimSpace(f.Phone),
		Address:      strings.TrimSpace(f.Address),
		Notes:        strings.TrimSpace(f.Notes),
	}
}

// Validate checks the required fields. The name may be empty for signed-in
// customers.
func (f Form) Validate(authenticated bool) error {
	f = f.trimmed()
	if f.CustomerName == "" && !authenticated {
		return fmt.Errorf("%w: customer_name", ErrMissingField)
	}
	if f.Phone == "" {
		return fmt.Errorf("%w: phone_number", ErrMissingField)
	}
	if f.Address == "" {
		return fmt.Errorf("%w: address", ErrMissingField)
	}
	return nil
}

type Builder struct {
	foodTypeID int64
	deps       Deps
	log        *zap.Logger

	mu        sync.Mutex
	activated bool
	restored  bool
	foodType  *models.FoodType
	selection Selection
	form      Form
}

// New creates a builder for one food type. The form name is prefilled from
// the signed-in user.
func New(foodTypeID int64, deps Deps) *Builder {
	if deps.Publisher == nil {
		deps.Publisher = notify.Nop{}
	}
	b := &Builder{
		foodTypeID: foodTypeID,
		deps:       deps,
		log:        logger.OrNop(deps.Log).With(zap.Int64("food_type_id", foodTypeID)),
	}
	if deps.Auth != nil && deps.Auth.IsAuthenticated() {
		b.form.CustomerName = deps.Auth.User().FullName()
	}
	return b
}

func (b *Builder) FoodTypeID() int64 {
	return b.foodTypeID
}

// Activate runs once per builder. It consumes a pending reorder payload,
// fetches the food type and seeds the selection from the payload or from the
// defaults. Later calls do nothing. On a fetch error the builder stays
// unloaded.
func (b *Builder) Activate(ctx context.Context) error {
	b.mu.Lock()
	if b.activated {
		b.mu.Unlock()
		return nil
	}
	b.activated = true
	var (
		payload    models.ReorderPayload
		hasReorder bool
	)
	if b.deps.Transient != nil {
		payload, hasReorder = b.deps.Transient.TakeReorder()
	}
	b.mu.Unlock()

	if hasReorder && payload.FoodTypeID != 0 && payload.FoodTypeID != b.foodTypeID {
		b.log.Info("ignoring reorder payload for another food type",
			zap.Int64("payload_food_type_id", payload.FoodTypeID))
		hasReorder = false
	}

	ft, err := b.deps.Catalog.FoodType(ctx, b.foodTypeID)
	if err != nil {
		b.log.Warn("fetch food type", zap.Error(err))
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.foodType = ft
	if hasReorder {
		b.selection.RestoreFrom(payload.IngredientIDs, ft.Ingredients)
		b.restored = true
		if dropped := len(payload.IngredientIDs) - countKnown(payload.IngredientIDs, ft); dropped > 0 {
			b.log.Info("dropped stale ingredients from reorder", zap.Int("dropped", dropped))
		}
	} else {
		b.selection.Initialize(ft.Ingredients)
	}
	return nil
}

func countKnown(ids []int64, ft *models.FoodType) int {
	n := 0
	for _, id := range ids {
		if _, ok := ft.Ingredient(id); ok {
			n++
		}
	}
	return n
}

func (b *Builder) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.foodType != nil
}

// Restored reports whether the selection came from a reorder payload.
func (b *Builder) Restored() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.restored
}

// Toggle adds or removes a non-default ingredient.
func (b *Builder) Toggle(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.foodType == nil {
		return false
	}
	return b.selection.Toggle(id, b.foodType.Ingredients)
}

func (b *Builder) Reorder(ids []int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.foodType == nil {
		return ErrNotLoaded
	}
	return b.selection.Reorder(ids)
}

func (b *Builder) MoveUp(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.MoveUp(id)
}

func (b *Builder) MoveDown(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.MoveDown(id)
}

func (b *Builder) Selection() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.IDs()
}

func (b *Builder) Total() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.Total(b.foodType)
}

func (b *Builder) Form() Form {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.form
}

func (b *Builder) SetForm(f Form) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.form = f
}

// GridItem is one card of the ingredient grid.
type GridItem struct {
	models.Ingredient
	Selected bool
}

// View is a render snapshot of the builder.
type View struct {
	FoodType models.FoodType
	Selected []models.Ingredient // serve order
	Grid     []GridItem          // every available ingredient, list order
	Total    decimal.Decimal
}

// View returns the current render model, or false while loading. Selected
// ids missing from the ingredient list are skipped.
func (b *Builder) View() (View, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.foodType == nil {
		return View{}, false
	}
	ft := b.foodType
	v := View{
		FoodType: *ft,
		Total:    b.selection.Total(ft),
	}
	for _, id := range b.selection.ids {
		if ing, ok := ft.Ingredient(id); ok {
			v.Selected = append(v.Selected, ing)
		}
	}
	for _, ing := range ft.Ingredients {
		v.Grid = append(v.Grid, GridItem{Ingredient: ing, Selected: b.selection.Contains(ing.ID)})
	}
	return v, true
}

// Submit sends the current build as an order. The selection, total and form
// are snapshotted when Submit is called; edits made while the request is in
// flight do not affect it. On failure the builder state is untouched.
func (b *Builder) Submit(ctx context.Context, f Form) (Result, error) {
	authenticated := b.deps.Auth != nil && b.deps.Auth.IsAuthenticated()
	if err := f.Validate(authenticated); err != nil {
		return Result{}, err
	}
	f = f.trimmed()

	b.mu.Lock()
	if b.foodType == nil {
		b.mu.Unlock()
		return Result{}, ErrNotLoaded
	}
	ids := b.selection.IDs()
	total := b.selection.Total(b.foodType)
	b.form = f
	b.mu.Unlock()

	draft := models.OrderDraft{
		CustomerName: f.CustomerName,
		Phone:        f.Phone,
		Address:      f.Address,
		Notes:        f.Notes,
		TotalPrice:   total,
		Items: []models.LineItem{{
			FoodType:            b.foodTypeID,
			SelectedIngredients: ids,
			IngredientsOrder:    append([]int64(nil), ids...),
		}},
	}

	var auth http.Header
	if b.deps.Auth != nil {
		auth = b.deps.Auth.AuthHeader()
	}
	order, err := b.deps.Orders.SubmitOrder(ctx, draft, auth)
	if err != nil {
		b.log.Warn("submit order", zap.Error(err))
		return Result{}, err
	}

	res := Result{Next: NextHome, Order: order, Draft: draft}
	if authenticated {
		res.Next = NextOrders
	}
	b.publish(ctx, res, !authenticated)
	return res, nil
}

func (b *Builder) publish(ctx context.Context, res Result, guest bool) {
	ev := notify.OrderPlaced{
		ChatID:        b.deps.ChatID,
		FoodTypeID:    b.foodTypeID,
		IngredientIDs: res.Draft.Items[0].IngredientsOrder,
		TotalPrice:    res.Draft.TotalPrice.StringFixed(2),
		Guest:         guest,
		PlacedAt:      time.Now().UTC(),
	}
	if res.Order != nil {
		ev.OrderID = res.Order.ID
	}
	if err := b.deps.Publisher.PublishOrderPlaced(ctx, ev); err != nil {
		b.log.Warn("publish order placed", zap.Error(err))
	}
}
