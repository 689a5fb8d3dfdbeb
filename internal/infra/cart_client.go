package infra

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"checkout-service/internal/domain"

	"github.com/go-resty/resty/v2"
)

// CartClient talks to the cart aggregate, which this service consumes
// read-only at checkout time. Cart mutation logic lives elsewhere.
type CartClient struct {
	client *resty.Client
}

func NewCartClient(baseURL string, timeout time.Duration) *CartClient {
	return &CartClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
	}
}

func (c *CartClient) ListItems(ctx context.Context, userID string) ([]domain.CartLineItem, error) {
	var items []domain.CartLineItem
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&items).
		Get(fmt.Sprintf("/carts/%s/items", userID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cart service returned status %d", resp.StatusCode())
	}
	return items, nil
}

func (c *CartClient) Clear(ctx context.Context, userID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/carts/%s", userID))
	if err != nil {
		return err
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("cart service returned status %d", resp.StatusCode())
	}
	return nil
}

func (c *CartClient) Validate(ctx context.Context, userID string) (*domain.CartValidation, error) {
	var v domain.CartValidation
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&v).
		Get(fmt.Sprintf("/carts/%s/validate", userID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cart service returned status %d", resp.StatusCode())
	}
	return &v, nil
}
