package shipping

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"checkout-service/internal/domain"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const shiprocketBaseURL = "https://apiv2.shiprocket.in"

// Shiprocket tokens are valid for days; refresh when under an hour remains.
const tokenRefreshWindow = time.Hour

type ClientInterface interface {
	CreateShipment(ctx context.Context, order *domain.Order) error
}

type Config struct {
	Email    string
	Password string
	BaseURL  string
	// PickupLocation must match a location configured on the Shiprocket
	// dashboard.
	PickupLocation string
}

func ConfigFromEnv() Config {
	return Config{
		Email:          os.Getenv("SHIPROCKET_EMAIL"),
		Password:       os.Getenv("SHIPROCKET_PASSWORD"),
		BaseURL:        shiprocketBaseURL,
		PickupLocation: os.Getenv("SHIPROCKET_PICKUP_LOCATION"),
	}
}

// Client creates shipment orders with Shiprocket. Login happens lazily and
// the bearer token is cached with its expiry.
type Client struct {
	cfg    Config
	client *resty.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	group     singleflight.Group
}

func NewClient(cfg Config, timeout time.Duration) *Client {
	return &Client{
		cfg: cfg,
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(timeout),
	}
}

func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Until(c.expiresAt) > tokenRefreshWindow {
		tok := c.token
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("login", func() (interface{}, error) {
		var out struct {
			Token string `json:"token"`
		}
		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(map[string]string{"email": c.cfg.Email, "password": c.cfg.Password}).
			SetResult(&out).
			Post("/v1/external/auth/login")
		if err != nil {
			return nil, err
		}
		if resp.IsError() || out.Token == "" {
			return nil, fmt.Errorf("shiprocket login failed with status %d", resp.StatusCode())
		}
		c.mu.Lock()
		c.token = out.Token
		c.expiresAt = time.Now().Add(240 * time.Hour)
		c.mu.Unlock()
		return out.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) CreateShipment(ctx context.Context, order *domain.Order) error {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return err
	}

	items := make([]map[string]any, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, map[string]any{
			"name":          fmt.Sprintf("product-%d", it.ProductID),
			"sku":           fmt.Sprintf("%d-%s", it.ProductID, it.SelectedSize),
			"units":         it.Quantity,
			"selling_price": float64(it.Price) / 100,
		})
	}

	body := map[string]any{
		"order_id":              fmt.Sprintf("%d", order.ID),
		"order_date":            order.CreatedAt.Format("2006-01-02 15:04"),
		"pickup_location":       c.cfg.PickupLocation,
		"billing_customer_name": order.ShippingAddress.Name,
		"billing_phone":         order.ShippingAddress.Phone,
		"billing_address":       order.ShippingAddress.Line1,
		"billing_city":          order.ShippingAddress.City,
		"billing_state":         order.ShippingAddress.State,
		"billing_pincode":       order.ShippingAddress.Pincode,
		"billing_country":       "India",
		"shipping_is_billing":   true,
		"payment_method":        shiprocketPaymentMethod(order.PaymentMethod),
		"sub_total":             float64(order.TotalAmount) / 100,
		"order_items":           items,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(body).
		Post("/v1/external/orders/create/adhoc")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("shiprocket order create failed with status %d", resp.StatusCode())
	}

	log.WithField("order_id", order.ID).Info("shipment order created")
	return nil
}

func shiprocketPaymentMethod(m domain.PaymentMethod) string {
	if m == domain.MethodCOD {
		return "COD"
	}
	return "Prepaid"
}

var _ ClientInterface = (*Client)(nil)
