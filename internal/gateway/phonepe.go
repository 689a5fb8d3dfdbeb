package gateway

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

const (
	phonePeSandboxURL    = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	phonePeProductionURL = "https://api.phonepe.com/apis/pg"
)

type PhonePeConfig struct {
	ClientID      string
	ClientSecret  string
	ClientVersion string
	BaseURL       string
	// Webhook credentials; PhonePe's v2 callback carries
	// SHA256(username:password) in the Authorization header instead of a
	// payload signature.
	WebhookUser string
	WebhookPass string
}

func PhonePeConfigFromEnv() PhonePeConfig {
	base := phonePeSandboxURL
	if os.Getenv("PHONEPE_ENV") == "production" {
		base = phonePeProductionURL
	}
	return PhonePeConfig{
		ClientID:      os.Getenv("PHONEPE_CLIENT_ID"),
		ClientSecret:  os.Getenv("PHONEPE_CLIENT_SECRET"),
		ClientVersion: os.Getenv("PHONEPE_CLIENT_VERSION"),
		BaseURL:       base,
		WebhookUser:   os.Getenv("PHONEPE_WEBHOOK_USER"),
		WebhookPass:   os.Getenv("PHONEPE_WEBHOOK_PASS"),
	}
}

// PhonePe implements Gateway against the PhonePe v2 checkout API.
type PhonePe struct {
	cfg    PhonePeConfig
	client *resty.Client
	tokens *tokenCache
}

func NewPhonePe(cfg PhonePeConfig, timeout time.Duration) *PhonePe {
	p := &PhonePe{
		cfg: cfg,
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(time.Second),
	}
	p.tokens = newTokenCache(p.fetchToken)
	return p
}

func (p *PhonePe) fetchToken(ctx context.Context) (string, time.Time, error) {
	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":      p.cfg.ClientID,
			"client_secret":  p.cfg.ClientSecret,
			"client_version": p.cfg.ClientVersion,
			"grant_type":     "client_credentials",
		}).
		SetResult(&out).
		Post("/v1/oauth/token")
	if err != nil {
		return "", time.Time{}, &ProviderError{Provider: "phonepe", Message: err.Error()}
	}
	if resp.IsError() {
		return "", time.Time{}, &ProviderError{Provider: "phonepe", StatusCode: resp.StatusCode(), Message: "token request rejected"}
	}
	if out.AccessToken == "" {
		return "", time.Time{}, &ProviderError{Provider: "phonepe", StatusCode: resp.StatusCode(), Message: "empty access token"}
	}
	return out.AccessToken, time.Unix(out.ExpiresAt, 0), nil
}

func (p *PhonePe) CreatePaymentOrder(ctx context.Context, req *CreateOrderRequest) (*PaymentOrder, error) {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"merchantOrderId": req.MerchantTxID,
		"amount":          req.Amount,
		"paymentFlow": map[string]any{
			"type": "PG_CHECKOUT",
			"merchantUrls": map[string]any{
				"redirectUrl": req.RedirectURL,
			},
		},
	}

	var out struct {
		OrderID     string `json:"orderId"`
		State       string `json:"state"`
		RedirectURL string `json:"redirectUrl"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "O-Bearer "+token).
		SetBody(body).
		SetResult(&out).
		Post("/checkout/v2/pay")
	if err != nil {
		return nil, &ProviderError{Provider: "phonepe", Message: err.Error()}
	}
	if resp.IsError() {
		return nil, &ProviderError{Provider: "phonepe", StatusCode: resp.StatusCode(), Message: string(resp.Body())}
	}
	if out.RedirectURL == "" {
		return nil, &ProviderError{Provider: "phonepe", StatusCode: resp.StatusCode(), Message: "no redirect url in response"}
	}

	log.WithFields(log.Fields{
		"merchant_tx_id": req.MerchantTxID,
		"provider_order": out.OrderID,
	}).Info("phonepe payment order created")

	return &PaymentOrder{RedirectURL: out.RedirectURL, ProviderOrderID: out.OrderID}, nil
}

func (p *PhonePe) CheckStatus(ctx context.Context, merchantTxID string) (*StatusResult, error) {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var out struct {
		State          string `json:"state"`
		PaymentDetails []struct {
			TransactionID string `json:"transactionId"`
			State         string `json:"state"`
		} `json:"paymentDetails"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "O-Bearer "+token).
		SetResult(&out).
		Get(fmt.Sprintf("/checkout/v2/order/%s/status", merchantTxID))
	if err != nil {
		return nil, &ProviderError{Provider: "phonepe", Message: err.Error()}
	}
	if resp.IsError() {
		return nil, &ProviderError{Provider: "phonepe", StatusCode: resp.StatusCode(), Message: string(resp.Body())}
	}

	res := &StatusResult{State: normalizePhonePeState(out.State)}
	for _, d := range out.PaymentDetails {
		if d.TransactionID != "" {
			res.TransactionID = d.TransactionID
			break
		}
	}
	return res, nil
}

func normalizePhonePeState(s string) State {
	switch s {
	case "COMPLETED":
		return StateCompleted
	case "PENDING":
		return StatePending
	default:
		return StateFailed
	}
}

// VerifyCallbackSignature checks the webhook Authorization header. PhonePe v2
// does not sign the payload; it sends SHA256(username:password) of the
// credentials configured on the merchant dashboard. An empty header or
// unconfigured credentials never verify.
func (p *PhonePe) VerifyCallbackSignature(header string, _ []byte) bool {
	if header == "" || p.cfg.WebhookUser == "" || p.cfg.WebhookPass == "" {
		return false
	}
	sum := sha256.Sum256([]byte(p.cfg.WebhookUser + ":" + p.cfg.WebhookPass))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(header), []byte(expected)) == 1
}

var _ Gateway = (*PhonePe)(nil)
