package http

import "checkout-service/internal/domain"

type OrderItemRequest struct {
	ProductID    uint64 `json:"productId" binding:"required"`
	Quantity     int64  `json:"quantity" binding:"required,min=1"`
	UnitPrice    int64  `json:"unitPrice" binding:"required,min=0"`
	SelectedSize string `json:"selectedSize"`
}

type CreateOrderRequest struct {
	PaymentMethod string             `json:"paymentMethod" binding:"required,oneof=cod"`
	Amount        int64              `json:"amount" binding:"min=0"`
	CouponCode    string             `json:"couponCode"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Shipping      domain.Address     `json:"shipping" binding:"required"`
}

type CreateOrderResponse struct {
	Success     bool   `json:"success"`
	COD         bool   `json:"cod"`
	FinalAmount int64  `json:"finalAmount"`
	OrderID     uint64 `json:"orderId"`
}

type CreatePaymentRequest struct {
	Amount       int64  `json:"amount" binding:"min=0"`
	OrderID      string `json:"orderId"`
	UserID       string `json:"userId" binding:"required"`
	CouponCode   string `json:"couponCode"`
	MobileNumber string `json:"mobileNumber"`
}

type CreatePaymentResponse struct {
	Success               bool   `json:"success"`
	PaymentURL            string `json:"paymentUrl"`
	MerchantTransactionID string `json:"merchantTransactionId"`
}

type OrderMeta struct {
	Items    []OrderItemRequest `json:"items"`
	Shipping domain.Address     `json:"shipping"`
	Amount   int64              `json:"amount"`
	UserID   string             `json:"userId"`
}

type VerifyPaymentRequest struct {
	MerchantTransactionID string    `json:"merchantTransactionId" binding:"required"`
	OrderMeta             OrderMeta `json:"orderMeta"`
}

type VerifyPaymentResponse struct {
	Success          bool   `json:"success"`
	OrderID          uint64 `json:"orderId"`
	TransactionID    string `json:"transactionId"`
	AlreadyProcessed bool   `json:"alreadyProcessed,omitempty"`
}

func toCartLineItems(items []OrderItemRequest) []domain.CartLineItem {
	out := make([]domain.CartLineItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.CartLineItem{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			SelectedSize: it.SelectedSize,
		})
	}
	return out
}
