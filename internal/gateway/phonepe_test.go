package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhonePe_TokenCachedAcrossCalls(t *testing.T) {
	var tokenFetches int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/v1/oauth/token":
			atomic.AddInt64(&tokenFetches, 1)
			assert.Equal(t, "client_credentials", req.FormValue("grant_type"))
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok_1",
				"expires_at":   time.Now().Add(time.Hour).Unix(),
			})
		case "/checkout/v2/order/ORD_1/status":
			assert.Equal(t, "O-Bearer tok_1", req.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]any{"state": "PENDING"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewPhonePe(PhonePeConfig{ClientID: "cid", ClientSecret: "cs", BaseURL: srv.URL}, time.Second)

	for i := 0; i < 3; i++ {
		res, err := p.CheckStatus(context.Background(), "ORD_1")
		assert.NoError(t, err)
		assert.Equal(t, StatePending, res.State)
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&tokenFetches))
}

func TestPhonePe_TokenRefreshedNearExpiry(t *testing.T) {
	var tokenFetches int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/v1/oauth/token":
			atomic.AddInt64(&tokenFetches, 1)
			// under the 5 minute refresh window, so every call refetches
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok_short",
				"expires_at":   time.Now().Add(time.Minute).Unix(),
			})
		default:
			json.NewEncoder(w).Encode(map[string]any{"state": "PENDING"})
		}
	}))
	defer srv.Close()

	p := NewPhonePe(PhonePeConfig{ClientID: "cid", ClientSecret: "cs", BaseURL: srv.URL}, time.Second)

	_, err := p.CheckStatus(context.Background(), "ORD_1")
	assert.NoError(t, err)
	_, err = p.CheckStatus(context.Background(), "ORD_1")
	assert.NoError(t, err)

	assert.Equal(t, int64(2), atomic.LoadInt64(&tokenFetches))
}

func TestPhonePe_CreatePaymentOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/v1/oauth/token":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok_1",
				"expires_at":   time.Now().Add(time.Hour).Unix(),
			})
		case "/checkout/v2/pay":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "ORD_1", body["merchantOrderId"])
			assert.Equal(t, float64(119900), body["amount"])
			json.NewEncoder(w).Encode(map[string]any{
				"orderId":     "OMO_1",
				"state":       "PENDING",
				"redirectUrl": "https://pay.phonepe.test/redirect/OMO_1",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewPhonePe(PhonePeConfig{ClientID: "cid", ClientSecret: "cs", BaseURL: srv.URL}, time.Second)

	order, err := p.CreatePaymentOrder(context.Background(), &CreateOrderRequest{
		Amount:       119900,
		MerchantTxID: "ORD_1",
		RedirectURL:  "https://shop.example.com/payment/return",
	})

	assert.NoError(t, err)
	assert.Equal(t, "OMO_1", order.ProviderOrderID)
	assert.Equal(t, "https://pay.phonepe.test/redirect/OMO_1", order.RedirectURL)
}

func TestPhonePe_CheckStatus_Completed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/v1/oauth/token":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok_1",
				"expires_at":   time.Now().Add(time.Hour).Unix(),
			})
		default:
			json.NewEncoder(w).Encode(map[string]any{
				"state": "COMPLETED",
				"paymentDetails": []map[string]any{
					{"transactionId": "T123", "state": "COMPLETED"},
				},
			})
		}
	}))
	defer srv.Close()

	p := NewPhonePe(PhonePeConfig{ClientID: "cid", ClientSecret: "cs", BaseURL: srv.URL}, time.Second)

	res, err := p.CheckStatus(context.Background(), "ORD_1")
	assert.NoError(t, err)
	assert.Equal(t, StateCompleted, res.State)
	assert.Equal(t, "T123", res.TransactionID)
}

func TestPhonePe_TokenEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewPhonePe(PhonePeConfig{ClientID: "cid", ClientSecret: "bad", BaseURL: srv.URL}, time.Second)

	res, err := p.CheckStatus(context.Background(), "ORD_1")
	assert.Nil(t, res)
	var pe *ProviderError
	assert.ErrorAs(t, err, &pe)
}

func TestPhonePe_VerifyCallbackSignature(t *testing.T) {
	p := NewPhonePe(PhonePeConfig{WebhookUser: "hook", WebhookPass: "s3cret"}, time.Second)

	sum := sha256.Sum256([]byte("hook:s3cret"))
	valid := hex.EncodeToString(sum[:])

	assert.True(t, p.VerifyCallbackSignature(valid, nil))
	assert.False(t, p.VerifyCallbackSignature("deadbeef", nil))
	assert.False(t, p.VerifyCallbackSignature("", nil))

	unconfigured := NewPhonePe(PhonePeConfig{}, time.Second)
	assert.False(t, unconfigured.VerifyCallbackSignature(valid, nil))
}
