package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

const razorpayBaseURL = "https://api.razorpay.com"

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	// CheckoutURL is the storefront page hosting the Razorpay checkout
	// widget; the adapter redirects the client there with the provider
	// order id attached.
	CheckoutURL string
}

func RazorpayConfigFromEnv() RazorpayConfig {
	return RazorpayConfig{
		KeyID:       os.Getenv("RAZORPAY_KEY_ID"),
		KeySecret:   os.Getenv("RAZORPAY_KEY_SECRET"),
		BaseURL:     razorpayBaseURL,
		CheckoutURL: os.Getenv("SITE_BASE_URL") + "/payment/checkout",
	}
}

// Razorpay implements Gateway against the Razorpay orders API.
type Razorpay struct {
	cfg    RazorpayConfig
	client *resty.Client
}

func NewRazorpay(cfg RazorpayConfig, timeout time.Duration) *Razorpay {
	return &Razorpay{
		cfg: cfg,
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetBasicAuth(cfg.KeyID, cfg.KeySecret).
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(time.Second),
	}
}

func (r *Razorpay) CreatePaymentOrder(ctx context.Context, req *CreateOrderRequest) (*PaymentOrder, error) {
	body := map[string]any{
		"amount":   req.Amount,
		"currency": "INR",
		"receipt":  req.MerchantTxID,
		"notes":    map[string]string{"userId": req.UserID},
	}

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/v1/orders")
	if err != nil {
		return nil, &ProviderError{Provider: "razorpay", Message: err.Error()}
	}
	if resp.IsError() {
		return nil, &ProviderError{Provider: "razorpay", StatusCode: resp.StatusCode(), Message: string(resp.Body())}
	}
	if out.ID == "" {
		return nil, &ProviderError{Provider: "razorpay", StatusCode: resp.StatusCode(), Message: "no order id in response"}
	}

	redirect := fmt.Sprintf("%s?order_id=%s&txn=%s",
		r.cfg.CheckoutURL, url.QueryEscape(out.ID), url.QueryEscape(req.MerchantTxID))

	log.WithFields(log.Fields{
		"merchant_tx_id": req.MerchantTxID,
		"provider_order": out.ID,
	}).Info("razorpay payment order created")

	return &PaymentOrder{RedirectURL: redirect, ProviderOrderID: out.ID}, nil
}

func (r *Razorpay) CheckStatus(ctx context.Context, merchantTxID string) (*StatusResult, error) {
	// Orders are created with receipt = merchantTxID, so status lookup goes
	// through the receipt filter.
	var orders struct {
		Items []struct {
			ID         string `json:"id"`
			Status     string `json:"status"`
			AmountPaid int64  `json:"amount_paid"`
		} `json:"items"`
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("receipt", merchantTxID).
		SetResult(&orders).
		Get("/v1/orders")
	if err != nil {
		return nil, &ProviderError{Provider: "razorpay", Message: err.Error()}
	}
	if resp.IsError() {
		return nil, &ProviderError{Provider: "razorpay", StatusCode: resp.StatusCode(), Message: string(resp.Body())}
	}
	if len(orders.Items) == 0 {
		return nil, &ProviderError{Provider: "razorpay", StatusCode: resp.StatusCode(), Message: "no order for receipt " + merchantTxID}
	}

	ord := orders.Items[0]
	res := &StatusResult{State: normalizeRazorpayState(ord.Status)}
	if res.State != StateCompleted {
		return res, nil
	}

	var payments struct {
		Items []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"items"`
	}
	resp, err = r.client.R().
		SetContext(ctx).
		SetResult(&payments).
		Get(fmt.Sprintf("/v1/orders/%s/payments", ord.ID))
	if err != nil {
		return nil, &ProviderError{Provider: "razorpay", Message: err.Error()}
	}
	if resp.IsError() {
		return nil, &ProviderError{Provider: "razorpay", StatusCode: resp.StatusCode(), Message: string(resp.Body())}
	}
	for _, p := range payments.Items {
		if p.Status == "captured" {
			res.TransactionID = p.ID
			break
		}
	}
	return res, nil
}

func normalizeRazorpayState(s string) State {
	switch s {
	case "paid":
		return StateCompleted
	case "created", "attempted":
		return StatePending
	default:
		return StateFailed
	}
}

// VerifyCallbackSignature recomputes HMAC-SHA256 over the payload with the
// key secret and compares in constant time. For the checkout callback the
// payload is "<orderId>|<paymentId>".
func (r *Razorpay) VerifyCallbackSignature(header string, payload []byte) bool {
	if header == "" || r.cfg.KeySecret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(r.cfg.KeySecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(header), []byte(expected))
}

// VerifyPaymentSignature is the checkout-redirect form of callback
// verification: the signature covers orderId + "|" + paymentId.
func (r *Razorpay) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return r.VerifyCallbackSignature(signature, []byte(orderID+"|"+paymentID))
}

var _ Gateway = (*Razorpay)(nil)
