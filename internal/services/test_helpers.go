package services

import (
	"time"

	"checkout-service/internal/domain"
)

func CreateMockOrder(id uint64, userID string, totalAmount int64, merchantTxID string) *domain.Order {
	return &domain.Order{
		ID:            id,
		UserID:        userID,
		TotalAmount:   totalAmount,
		Status:        domain.StatusPending,
		PaymentMethod: domain.MethodOnline,
		PaymentStatus: domain.PaymentPaid,
		MerchantTxID:  merchantTxID,
		CreatedAt:     time.Now(),
	}
}

func CreateMockPending(merchantTxID, userID string, amount int64, items ...domain.CartLineItem) *domain.PendingPayment {
	return &domain.PendingPayment{
		MerchantTxID: merchantTxID,
		UserID:       userID,
		Amount:       amount,
		Items:        items,
		Shipping: domain.Address{
			Name:    "Test User",
			Phone:   "9999999999",
			Line1:   "12 Test Lane",
			City:    "Mumbai",
			State:   "MH",
			Pincode: "400001",
		},
		CreatedAt: time.Now(),
	}
}

const (
	TestUserID  = "user_1"
	TestTxID    = "ORD_1700000000_user1abc"
	TestAmount  = int64(119900)
	TestPayTxID = "T2409151234"
)
