package builder

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"food-builder/api"
	"food-builder/models"
	"food-builder/notify"
	"food-builder/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCatalog struct {
	ft    *models.FoodType
	err   error
	calls int
}

func (f *fakeCatalog) FoodType(_ context.Context, id int64) (*models.FoodType, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.ft
	return &cp, nil
}

type fakeOrders struct {
	mu     sync.Mutex
	drafts []models.OrderDraft
	auths  []http.Header
	err    error
	// gate, when set, blocks SubmitOrder until closed.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeOrders) SubmitOrder(_ context.Context, d models.OrderDraft, auth http.Header) (*models.Order, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, d)
	f.auths = append(f.auths, auth)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: int64(len(f.drafts))}, nil
}

type fakeAuth struct {
	user *models.User
}

func (f *fakeAuth) AuthHeader() http.Header {
	h := http.Header{}
	if f.user != nil {
		h.Set("Authorization", "Bearer tok")
	}
	return h
}

func (f *fakeAuth) IsAuthenticated() bool { return f.user != nil }

func (f *fakeAuth) User() *models.User { return f.user }

type recordingPublisher struct {
	events []notify.OrderPlaced
	err    error
}

func (r *recordingPublisher) PublishOrderPlaced(_ context.Context, ev notify.OrderPlaced) error {
	r.events = append(r.events, ev)
	return r.err
}

type fixture struct {
	catalog   *fakeCatalog
	orders    *fakeOrders
	auth      *fakeAuth
	transient *session.Transient
	pub       *recordingPublisher
}

func newFixture(ft *models.FoodType) *fixture {
	return &fixture{
		catalog:   &fakeCatalog{ft: ft},
		orders:    &fakeOrders{},
		auth:      &fakeAuth{},
		transient: session.NewTransient(),
		pub:       &recordingPublisher{},
	}
}

func (f *fixture) builder(id int64) *Builder {
	return New(id, Deps{
		Catalog:   f.catalog,
		Orders:    f.orders,
		Auth:      f.auth,
		Transient: f.transient,
		Publisher: f.pub,
		ChatID:    100,
	})
}

var guestForm = Form{CustomerName: "Guest", Phone: "555", Address: "1 Main St"}

func TestActivateSeedsDefaults(t *testing.T) {
	f := newFixture(salad())
	b := f.builder(8)

	assert.False(t, b.Loaded())
	_, ok := b.View()
	assert.False(t, ok, "loading until activated")

	require.NoError(t, b.Activate(context.Background()))
	assert.True(t, b.Loaded())
	assert.False(t, b.Restored())
	assert.Equal(t, []int64{10, 12}, b.Selection())
	assert.True(t, b.Total().Equal(dec("3.00")))
}

func TestActivateRestoresReorderPayloadOnce(t *testing.T) {
	f := newFixture(salad())
	require.NoError(t, f.transient.PutReorder(models.ReorderPayload{FoodTypeID: 8, IngredientIDs: []int64{14, 12, 10}}))

	b := f.builder(8)
	require.NoError(t, b.Activate(context.Background()))
	assert.True(t, b.Restored())
	assert.Equal(t, []int64{14, 12, 10}, b.Selection())
	assert.False(t, f.transient.Has(session.ReorderKey), "payload consumed")

	// A fresh payload and a second activation must not touch the selection.
	require.NoError(t, f.transient.PutReorder(models.ReorderPayload{FoodTypeID: 8, IngredientIDs: []int64{11}}))
	require.NoError(t, b.Activate(context.Background()))
	assert.Equal(t, []int64{14, 12, 10}, b.Selection())
	assert.Equal(t, 1, f.catalog.calls)
}

func TestActivateDropsStaleReorderIDs(t *testing.T) {
	f := newFixture(salad())
	require.NoError(t, f.transient.PutReorder(models.ReorderPayload{FoodTypeID: 8, IngredientIDs: []int64{14, 404, 10}}))

	b := f.builder(8)
	require.NoError(t, b.Activate(context.Background()))

	assert.Equal(t, []int64{14, 10, 12}, b.Selection())
	v, ok := b.View()
	require.True(t, ok)
	assert.Len(t, v.Selected, 3)
	assert.True(t, b.Total().Equal(dec("5.75")))
}

func TestActivateIgnoresPayloadForOtherFoodType(t *testing.T) {
	f := newFixture(salad())
	require.NoError(t, f.transient.PutReorder(models.ReorderPayload{FoodTypeID: 7, IngredientIDs: []int64{1, 2}}))

	b := f.builder(8)
	require.NoError(t, b.Activate(context.Background()))

	assert.False(t, b.Restored())
	assert.Equal(t, []int64{10, 12}, b.Selection())
	assert.False(t, f.transient.Has(session.ReorderKey), "consumed anyway")
}

func TestActivateFetchErrorStaysLoading(t *testing.T) {
	f := newFixture(salad())
	f.catalog.err = api.ErrNotFound
	require.NoError(t, f.transient.PutReorder(models.ReorderPayload{FoodTypeID: 8, IngredientIDs: []int64{11}}))

	b := f.builder(8)
	err := b.Activate(context.Background())

	assert.ErrorIs(t, err, api.ErrNotFound)
	assert.False(t, b.Loaded())
	assert.False(t, b.Toggle(11))
	assert.ErrorIs(t, b.Reorder(nil), ErrNotLoaded)
	_, err = b.Submit(context.Background(), guestForm)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.False(t, f.transient.Has(session.ReorderKey), "payload consumed even if the fetch fails")
}

func TestBuilderWorkedExample(t *testing.T) {
	f := newFixture(pizza())
	b := f.builder(7)
	require.NoError(t, b.Activate(context.Background()))

	assert.Equal(t, []int64{1}, b.Selection())
	assert.True(t, b.Toggle(2))
	assert.True(t, b.Total().Equal(dec("6.50")))
	assert.False(t, b.Toggle(1))
	assert.Equal(t, []int64{1, 2}, b.Selection())
	require.NoError(t, b.Reorder([]int64{2, 1}))
	assert.Equal(t, []int64{2, 1}, b.Selection())
	assert.True(t, b.Total().Equal(dec("6.50")))

	assert.True(t, b.MoveDown(2))
	assert.Equal(t, []int64{1, 2}, b.Selection())
}

func TestView(t *testing.T) {
	f := newFixture(salad())
	b := f.builder(8)
	require.NoError(t, b.Activate(context.Background()))
	b.Toggle(14)
	require.NoError(t, b.Reorder([]int64{14, 10, 12}))

	v, ok := b.View()
	require.True(t, ok)
	assert.Equal(t, "Salad", v.FoodType.Name)
	require.Len(t, v.Selected, 3)
	assert.Equal(t, "Chicken", v.Selected[0].Name)
	require.Len(t, v.Grid, 5)
	assert.True(t, v.Grid[0].Selected && v.Grid[0].IsDefault)
	assert.False(t, v.Grid[1].Selected)
	assert.True(t, v.Grid[4].Selected)
	assert.True(t, v.Total.Equal(dec("5.75")))
}

func TestFormValidate(t *testing.T) {
	tests := []struct {
		name          string
		form          Form
		authenticated bool
		wantErr       bool
	}{
		{"guest complete", guestForm, false, false},
		{"guest without name", Form{Phone: "1", Address: "a"}, false, true},
		{"member without name", Form{Phone: "1", Address: "a"}, true, false},
		{"blank phone", Form{CustomerName: "x", Phone: "  ", Address: "a"}, false, true},
		{"no address", Form{CustomerName: "x", Phone: "1"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate(tt.authenticated)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingField)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubmitGuest(t *testing.T) {
	f := newFixture(pizza())
	b := f.builder(7)
	require.NoError(t, b.Activate(context.Background()))
	b.Toggle(2)

	res, err := b.Submit(context.Background(), Form{CustomerName: " Guest ", Phone: "555", Address: "1 Main St", Notes: "ring"})
	require.NoError(t, err)

	assert.Equal(t, NextHome, res.Next)
	require.NotNil(t, res.Order)
	require.Len(t, f.orders.drafts, 1)
	d := f.orders.drafts[0]
	assert.Equal(t, "Guest", d.CustomerName)
	assert.Equal(t, "6.50", d.TotalPrice.StringFixed(2))
	require.Len(t, d.Items, 1)
	assert.EqualValues(t, 7, d.Items[0].FoodType)
	assert.Equal(t, []int64{1, 2}, d.Items[0].SelectedIngredients)
	assert.Equal(t, []int64{1, 2}, d.Items[0].IngredientsOrder)
	assert.Empty(t, f.orders.auths[0], "guest sends no auth header")

	require.Len(t, f.pub.events, 1)
	assert.True(t, f.pub.events[0].Guest)
	assert.Equal(t, "6.50", f.pub.events[0].TotalPrice)
	assert.EqualValues(t, 100, f.pub.events[0].ChatID)
}

func TestSubmitAuthenticated(t *testing.T) {
	f := newFixture(pizza())
	f.auth.user = &models.User{Username: "sara", FirstName: "Sara", LastName: "Ali"}
	b := f.builder(7)
	assert.Equal(t, "Sara Ali", b.Form().CustomerName, "name prefilled")
	require.NoError(t, b.Activate(context.Background()))

	res, err := b.Submit(context.Background(), Form{Phone: "555", Address: "1 Main St"})
	require.NoError(t, err)

	assert.Equal(t, NextOrders, res.Next)
	assert.Equal(t, "Bearer tok", f.orders.auths[0].Get("Authorization"))
	assert.False(t, f.pub.events[0].Guest)
}

func TestSubmitFailurePreservesState(t *testing.T) {
	f := newFixture(pizza())
	f.orders.err = &api.StatusError{Code: http.StatusBadRequest}
	b := f.builder(7)
	require.NoError(t, b.Activate(context.Background()))
	b.Toggle(2)
	require.NoError(t, b.Reorder([]int64{2, 1}))

	_, err := b.Submit(context.Background(), guestForm)

	var serr *api.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, []int64{2, 1}, b.Selection())
	assert.Equal(t, guestForm, b.Form(), "form kept for retry")
	assert.Empty(t, f.pub.events)

	f.orders.err = api.ErrNetwork
	_, err = b.Submit(context.Background(), guestForm)
	assert.ErrorIs(t, err, api.ErrNetwork)
	assert.Equal(t, []int64{2, 1}, b.Selection())
}

func TestSubmitValidationFailsBeforeRequest(t *testing.T) {
	f := newFixture(pizza())
	b := f.builder(7)
	require.NoError(t, b.Activate(context.Background()))

	_, err := b.Submit(context.Background(), Form{CustomerName: "x", Address: "a"})
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Empty(t, f.orders.drafts)
}

func TestPublishFailureDoesNotFailSubmit(t *testing.T) {
	f := newFixture(pizza())
	f.pub.err = errors.New("broker down")
	b := f.builder(7)
	require.NoError(t, b.Activate(context.Background()))

	_, err := b.Submit(context.Background(), guestForm)
	assert.NoError(t, err)
}

func TestInFlightSubmitCarriesItsOwnSnapshot(t *testing.T) {
	f := newFixture(pizza())
	f.orders.gate = make(chan struct{})
	f.orders.entered = make(chan struct{}, 1)
	b := f.builder(7)
	require.NoError(t, b.Activate(context.Background()))
	b.Toggle(2)

	done := make(chan error, 1)
	go func() {
		_, err := b.Submit(context.Background(), guestForm)
		done <- err
	}()
	<-f.orders.entered

	// Edit while the first request is pending.
	b.Toggle(2)
	assert.Equal(t, []int64{1}, b.Selection())

	close(f.orders.gate)
	require.NoError(t, <-done)

	d := f.orders.drafts[0]
	assert.Equal(t, []int64{1, 2}, d.Items[0].IngredientsOrder)
	assert.Equal(t, "6.50", d.TotalPrice.StringFixed(2))
	assert.True(t, b.Total().Equal(dec("5.00")), "current selection reflects the edit")
}
