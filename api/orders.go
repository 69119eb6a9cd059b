package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"food-builder/models"
)

// Orders lists the authenticated user's past orders.
func (c *Client) Orders(ctx context.Context, auth http.Header) ([]models.Order, error) {
	var orders []models.Order
	if err := c.get(ctx, "/orders/", auth, &orders); err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.ID <= 0 {
			return nil, fmt.Errorf("%w: order without id", ErrMalformed)
		}
	}
	return orders, nil
}

// SubmitOrder posts a draft. auth may be empty for guest checkout. On 2xx the
// created order is returned when the body decodes as one, nil otherwise.
func (c *Client) SubmitOrder(ctx context.Context, draft models.OrderDraft, auth http.Header) (*models.Order, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/orders/", auth, draft)
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, &StatusError{Code: status, Body: body}
	}
	var created models.Order
	if err := json.Unmarshal(body, &created); err != nil || created.ID <= 0 {
		return nil, nil
	}
	return &created, nil
}
