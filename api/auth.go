package api

import (
	"context"
	"fmt"
	"net/http"

	"food-builder/models"
)

// Login exchanges credentials for tokens. Any non-2xx answer is reported as
// ErrInvalidCredentials without detail.
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthTokens, error) {
	in := map[string]string{"username": username, "password": password}
	status, body, err := c.do(ctx, http.MethodPost, "/auth/login/", nil, in)
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, ErrInvalidCredentials
	}
	return parseTokens(body)
}

// Register creates an account. Field errors from the API come back as
// *ValidationError.
func (c *Client) Register(ctx context.Context, p models.Profile) (*models.AuthTokens, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/auth/register/", nil, p)
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		if fields, isObject := parseFieldErrors(body); isObject {
			return nil, &ValidationError{Fields: fields}
		}
		return nil, &StatusError{Code: status, Body: body}
	}
	return parseTokens(body)
}

func parseTokens(body []byte) (*models.AuthTokens, error) {
	var t models.AuthTokens
	if err := decode(body, &t); err != nil {
		return nil, err
	}
	if t.Access == "" {
		return nil, fmt.Errorf("%w: auth response without access token", ErrMalformed)
	}
	if t.User.Username == "" && t.User.ID == 0 {
		return nil, fmt.Errorf("%w: auth response without user", ErrMalformed)
	}
	return &t, nil
}
