package mocks

import (
	"context"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/gateway"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByMerchantTxID(ctx context.Context, merchantTxID string) (*domain.Order, error) {
	args := m.Called(ctx, merchantTxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdatePaymentStatus(ctx context.Context, orderID uint64, status domain.PaymentStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePaymentOrder(ctx context.Context, req *gateway.CreateOrderRequest) (*gateway.PaymentOrder, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentOrder), args.Error(1)
}

func (m *MockGateway) CheckStatus(ctx context.Context, merchantTxID string) (*gateway.StatusResult, error) {
	args := m.Called(ctx, merchantTxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.StatusResult), args.Error(1)
}

func (m *MockGateway) VerifyCallbackSignature(header string, payload []byte) bool {
	args := m.Called(header, payload)
	return args.Bool(0)
}

type MockCartClient struct {
	mock.Mock
}

func (m *MockCartClient) ListItems(ctx context.Context, userID string) ([]domain.CartLineItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CartLineItem), args.Error(1)
}

func (m *MockCartClient) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCartClient) Validate(ctx context.Context, userID string) (*domain.CartValidation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartValidation), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) Release(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}

type MockPendingStore struct {
	mock.Mock
}

func (m *MockPendingStore) Put(ctx context.Context, p *domain.PendingPayment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPendingStore) Get(ctx context.Context, merchantTxID string) (*domain.PendingPayment, error) {
	args := m.Called(ctx, merchantTxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PendingPayment), args.Error(1)
}

func (m *MockPendingStore) Delete(ctx context.Context, merchantTxID string) error {
	args := m.Called(ctx, merchantTxID)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	args := m.Called(ctx, routingKey, data)
	return args.Error(0)
}

type MockShipper struct {
	mock.Mock
}

func (m *MockShipper) CreateShipment(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}
