package infra

import (
	"context"

	"checkout-service/internal/domain"
)

type CartClientInterface interface {
	ListItems(ctx context.Context, userID string) ([]domain.CartLineItem, error)
	Clear(ctx context.Context, userID string) error
	Validate(ctx context.Context, userID string) (*domain.CartValidation, error)
}

type PendingStoreInterface interface {
	Put(ctx context.Context, p *domain.PendingPayment) error
	Get(ctx context.Context, merchantTxID string) (*domain.PendingPayment, error)
	Delete(ctx context.Context, merchantTxID string) error
}

var _ CartClientInterface = (*CartClient)(nil)
var _ PendingStoreInterface = (*RedisPendingStore)(nil)
