package domain

import "time"

// PaymentState tracks a reconciliation attempt from gateway status lookup
// through durable order creation.
type PaymentState string

const (
	PaymentInitiated     PaymentState = "INITIATED"
	PaymentStatusChecked PaymentState = "STATUS_CHECKED"
	PaymentVerified      PaymentState = "VERIFIED"
	PaymentRejected      PaymentState = "REJECTED"
	OrderCreated         PaymentState = "ORDER_CREATED"
	PaymentStatusUpdated PaymentState = "PAYMENT_STATUS_UPDATED"
)

func (s PaymentState) IsTerminal() bool {
	return s == PaymentStatusUpdated || s == PaymentRejected
}

func (s PaymentState) String() string {
	return string(s)
}

var paymentTransitions = map[PaymentState][]PaymentState{
	PaymentInitiated:     {PaymentStatusChecked},
	PaymentStatusChecked: {PaymentVerified, PaymentRejected},
	PaymentVerified:      {OrderCreated},
	OrderCreated:         {PaymentStatusUpdated},
}

func CanTransitionTo(from, to PaymentState) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PendingPayment correlates a checkout attempt with the order to be written
// once the gateway confirms payment. Keyed by MerchantTxID, consumed once
// by reconciliation, then discarded.
type PendingPayment struct {
	MerchantTxID string         `json:"merchantTransactionId"`
	UserID       string         `json:"userId"`
	Amount       int64          `json:"amount"` // paise
	Items        []CartLineItem `json:"items"`
	Shipping     Address        `json:"shipping"`
	CreatedAt    time.Time      `json:"createdAt"`
}
