package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"checkout-service/internal/domain"
	"checkout-service/internal/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type checkoutService interface {
	PlaceCODOrder(ctx context.Context, in services.CODOrderInput) (*domain.Order, int64, error)
	InitiatePayment(ctx context.Context, in services.InitiatePaymentInput) (paymentURL, merchantTxID string, err error)
	GetOrderByID(ctx context.Context, id uint64) (*domain.Order, error)
}

type reconcileService interface {
	VerifyPayment(ctx context.Context, merchantTxID string, meta *domain.PendingPayment) (*services.VerifyResult, error)
}

// callbackVerifier is the provider-side authenticity check for webhook
// deliveries; both gateway adapters implement it.
type callbackVerifier interface {
	VerifyCallbackSignature(header string, payload []byte) bool
}

type Handler struct {
	checkout  checkoutService
	reconcile reconcileService
	verifier  callbackVerifier
}

func NewHandler(checkout checkoutService, reconcile reconcileService, verifier callbackVerifier) *Handler {
	return &Handler{checkout: checkout, reconcile: reconcile, verifier: verifier}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/orders", h.CreateOrder)
	r.GET("/orders/:id", h.GetOrder)
	r.POST("/payment/order", h.CreatePayment)
	r.PUT("/payment/verify", h.VerifyPayment)
	r.POST("/payment/webhook", h.PaymentWebhook)
}

// CreateOrder is the cash-on-delivery checkout path. The user id comes from
// the session established by the external auth provider.
func (h *Handler) CreateOrder(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user session"})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, finalAmount, err := h.checkout.PlaceCODOrder(c.Request.Context(), services.CODOrderInput{
		UserID:     userID,
		Amount:     req.Amount,
		CouponCode: req.CouponCode,
		Items:      toCartLineItems(req.Items),
		Shipping:   req.Shipping,
	})
	if err != nil {
		if errors.Is(err, services.ErrCartInvalid) || errors.Is(err, services.ErrAmountMismatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, domain.ErrInsufficientStock) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, CreateOrderResponse{
		Success:     true,
		COD:         true,
		FinalAmount: finalAmount,
		OrderID:     order.ID,
	})
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.checkout.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// CreatePayment initiates the online payment leg and returns the gateway's
// hosted-page URL.
func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paymentURL, merchantTxID, err := h.checkout.InitiatePayment(c.Request.Context(), services.InitiatePaymentInput{
		UserID:       req.UserID,
		Amount:       req.Amount,
		CouponCode:   req.CouponCode,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		if errors.Is(err, services.ErrCartInvalid) || errors.Is(err, services.ErrAmountMismatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.WithError(err).Error("payment initiation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment order could not be created"})
		return
	}

	c.JSON(http.StatusOK, CreatePaymentResponse{
		Success:               true,
		PaymentURL:            paymentURL,
		MerchantTransactionID: merchantTxID,
	})
}

// VerifyPayment is the synchronous reconciliation path, called by the
// client after the gateway redirect.
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var meta *domain.PendingPayment
	if len(req.OrderMeta.Items) > 0 || req.OrderMeta.Amount > 0 {
		meta = &domain.PendingPayment{
			MerchantTxID: req.MerchantTransactionID,
			UserID:       req.OrderMeta.UserID,
			Amount:       req.OrderMeta.Amount,
			Items:        toCartLineItems(req.OrderMeta.Items),
			Shipping:     req.OrderMeta.Shipping,
		}
	}

	result, err := h.reconcile.VerifyPayment(c.Request.Context(), req.MerchantTransactionID, meta)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotCompleted):
			resp := gin.H{"error": err.Error()}
			if result != nil {
				resp["state"] = result.State
			}
			c.JSON(http.StatusBadRequest, resp)
		case errors.Is(err, services.ErrVerificationUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrOrderMetaMissing):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, VerifyPaymentResponse{
		Success:          true,
		OrderID:          result.Order.ID,
		TransactionID:    result.TransactionID,
		AlreadyProcessed: result.AlreadyProcessed,
	})
}

// PaymentWebhook is the asynchronous reconciliation path. Authenticity is
// checked through the active gateway: PhonePe sends a credential digest in
// Authorization, Razorpay an HMAC of the body in X-Razorpay-Signature. The
// provider retries delivery, so this handler leans entirely on
// VerifyPayment's idempotency. Responses are plain text, as the provider
// expects.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.String(http.StatusBadRequest, "Bad Request")
		return
	}

	sig := c.GetHeader("X-Razorpay-Signature")
	if sig == "" {
		sig = c.GetHeader("Authorization")
	}
	if !h.verifier.VerifyCallbackSignature(sig, body) {
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload struct {
		Event   string `json:"event"`
		Payload struct {
			MerchantOrderID       string `json:"merchantOrderId"`
			MerchantTransactionID string `json:"merchantTransactionId"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.String(http.StatusBadRequest, "Bad Request")
		return
	}

	txID := payload.Payload.MerchantOrderID
	if txID == "" {
		txID = payload.Payload.MerchantTransactionID
	}
	if txID == "" {
		c.String(http.StatusBadRequest, "Bad Request")
		return
	}

	_, err = h.reconcile.VerifyPayment(c.Request.Context(), txID, nil)
	if err != nil && !errors.Is(err, services.ErrPaymentNotCompleted) {
		log.WithError(err).WithField("merchant_tx_id", txID).Error("webhook reconciliation failed")
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	c.String(http.StatusOK, "OK")
}
