package repository

import (
	"context"

	"checkout-service/internal/domain"
)

// OrderRepository is the durable side of the checkout flow. CreateOrder
// must write the order, its items and the stock decrement as one unit;
// FindByMerchantTxID backs the reconciliation idempotency check and
// returns nil, nil when no order exists.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	FindByMerchantTxID(ctx context.Context, merchantTxID string) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID uint64, status domain.PaymentStatus) error
}
