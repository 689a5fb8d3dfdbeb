package domain

import "time"

type OrderCreatedEvent struct {
	OrderID       uint64        `json:"orderId"`
	UserID        string        `json:"userId"`
	TotalAmount   int64         `json:"totalAmount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type PaymentCapturedEvent struct {
	OrderID       uint64    `json:"orderId"`
	MerchantTxID  string    `json:"merchantTransactionId"`
	TransactionID string    `json:"transactionId"`
	Amount        int64     `json:"amount"`
	CapturedAt    time.Time `json:"capturedAt"`
}
