package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/gateway"
	"checkout-service/internal/mocks"
	"checkout-service/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type checkoutMocks struct {
	repo      *mocks.MockOrderRepository
	cart      *mocks.MockCartClient
	gw        *mocks.MockGateway
	pending   *mocks.MockPendingStore
	publisher *mocks.MockPublisher
}

func newCheckoutMocks() *checkoutMocks {
	return &checkoutMocks{
		repo:      new(mocks.MockOrderRepository),
		cart:      new(mocks.MockCartClient),
		gw:        new(mocks.MockGateway),
		pending:   new(mocks.MockPendingStore),
		publisher: new(mocks.MockPublisher),
	}
}

func (m *checkoutMocks) service() *CheckoutService {
	engine := pricing.NewEngine(pricing.SiteConfig{
		FreeShippingThreshold: 99900,
		ShippingCharge:        9900,
		CODCharge:             4900,
	}, pricing.DefaultCoupons())
	return NewCheckoutService(m.repo, m.cart, m.gw, engine, m.pending, m.publisher, "https://shop.example.com")
}

func validCODInput() CODOrderInput {
	return CODOrderInput{
		UserID: TestUserID,
		Items: []domain.CartLineItem{
			{ProductID: 7, Quantity: 2, UnitPrice: 50000, SelectedSize: "100ml"},
		},
		Shipping: domain.Address{Name: "Test User", Line1: "12 Test Lane", City: "Mumbai", Pincode: "400001"},
	}
}

func TestCheckoutService_PlaceCODOrder(t *testing.T) {
	tests := []struct {
		name           string
		input          CODOrderInput
		setupMocks     func(*checkoutMocks)
		expectedError  error
		expectedAmount int64
	}{
		{
			// subtotal 100000 clears free shipping, COD surcharge on top
			name:  "amount computed from items plus cod surcharge",
			input: validCODInput(),
			setupMocks: func(m *checkoutMocks) {
				m.cart.On("Validate", mock.Anything, TestUserID).Return(&domain.CartValidation{Valid: true}, nil)
				m.repo.On("CreateOrder", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Run(func(args mock.Arguments) {
					args.Get(1).(*domain.Order).ID = 1
				})
				m.cart.On("Clear", mock.Anything, TestUserID).Return(nil)
				m.publisher.On("Publish", mock.Anything, "order.created", mock.Anything).Return(nil).Maybe()
			},
			expectedAmount: 104900,
		},
		{
			name: "matching client claim accepted",
			input: func() CODOrderInput {
				in := validCODInput()
				in.Amount = 104900
				return in
			}(),
			setupMocks: func(m *checkoutMocks) {
				m.cart.On("Validate", mock.Anything, TestUserID).Return(&domain.CartValidation{Valid: true}, nil)
				m.repo.On("CreateOrder", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Run(func(args mock.Arguments) {
					args.Get(1).(*domain.Order).ID = 1
				})
				m.cart.On("Clear", mock.Anything, TestUserID).Return(nil)
				m.publisher.On("Publish", mock.Anything, "order.created", mock.Anything).Return(nil).Maybe()
			},
			expectedAmount: 104900,
		},
		{
			name: "tampered client amount rejected",
			input: func() CODOrderInput {
				in := validCODInput()
				in.Amount = 1
				return in
			}(),
			setupMocks: func(m *checkoutMocks) {
				m.cart.On("Validate", mock.Anything, TestUserID).Return(&domain.CartValidation{Valid: true}, nil)
			},
			expectedError: ErrAmountMismatch,
		},
		{
			name: "below free shipping threshold adds shipping charge",
			input: CODOrderInput{
				UserID: TestUserID,
				Items: []domain.CartLineItem{
					{ProductID: 7, Quantity: 1, UnitPrice: 50000},
				},
				Shipping: domain.Address{Name: "Test User", Line1: "12 Test Lane", City: "Mumbai", Pincode: "400001"},
			},
			setupMocks: func(m *checkoutMocks) {
				m.cart.On("Validate", mock.Anything, TestUserID).Return(&domain.CartValidation{Valid: true}, nil)
				m.repo.On("CreateOrder", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Run(func(args mock.Arguments) {
					args.Get(1).(*domain.Order).ID = 1
				})
				m.cart.On("Clear", mock.Anything, TestUserID).Return(nil)
				m.publisher.On("Publish", mock.Anything, "order.created", mock.Anything).Return(nil).Maybe()
			},
			// 50000 + 9900 shipping + 4900 cod
			expectedAmount: 64800,
		},
		{
			name: "coupon discount applied before surcharges",
			input: func() CODOrderInput {
				in := CODOrderInput{
					UserID:     TestUserID,
					CouponCode: "FESTIVE10",
					Items: []domain.CartLineItem{
						{ProductID: 7, Quantity: 1, UnitPrice: 119900},
					},
					Shipping: domain.Address{Name: "Test User", Line1: "12 Test Lane", City: "Mumbai", Pincode: "400001"},
				}
				return in
			}(),
			setupMocks: func(m *checkoutMocks) {
				m.cart.On("Validate", mock.Anything, TestUserID).Return(&domain.CartValidation{Valid: true}, nil)
				m.repo.On("CreateOrder", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Run(func(args mock.Arguments) {
					args.Get(1).(*domain.Order).ID = 1
				})
				m.cart.On("Clear", mock.Anything, TestUserID).Return(nil)
				m.publisher.On("Publish", mock.Anything, "order.created", mock.Anything).Return(nil).Maybe()
			},
			// 119900 - 11990 discount + 0 shipping + 4900 cod
			expectedAmount: 112810,
		},
		{
			name:  "cart validation failure blocks the order",
			input: validCODInput(),
			setupMocks: func(m *checkoutMocks) {
				m.cart.On("Validate", mock.Anything, TestUserID).Return(&domain.CartValidation{
					Valid:  false,
					Issues: []string{"product 7: only 1 left"},
				}, nil)
			},
			expectedError: ErrCartInvalid,
		},
		{
			name:  "insufficient stock from writer",
			input: validCODInput(),
			setupMocks: func(m *checkoutMocks) {
				m.cart.On("Validate", mock.Anything, TestUserID).Return(&domain.CartValidation{Valid: true}, nil)
				m.repo.On("CreateOrder", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(domain.ErrInsufficientStock)
			},
			expectedError: domain.ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newCheckoutMocks()
			tt.setupMocks(m)

			order, finalAmount, err := m.service().PlaceCODOrder(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, order)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, order)
				assert.Equal(t, tt.expectedAmount, finalAmount)
				assert.Equal(t, tt.expectedAmount, order.TotalAmount)
				assert.Equal(t, domain.MethodCOD, order.PaymentMethod)
				assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
				assert.NotEmpty(t, order.MerchantTxID)
			}

			time.Sleep(100 * time.Millisecond)
			m.repo.AssertExpectations(t)
			m.cart.AssertExpectations(t)
			m.publisher.AssertExpectations(t)
		})
	}
}

func TestCheckoutService_InitiatePayment(t *testing.T) {
	m := newCheckoutMocks()

	items := []domain.CartLineItem{{ProductID: 7, Quantity: 1, UnitPrice: 119900}}
	m.cart.On("Validate", mock.Anything, TestUserID).Return(&domain.CartValidation{Valid: true}, nil)
	m.cart.On("ListItems", mock.Anything, TestUserID).Return(items, nil)

	var snapshot *domain.PendingPayment
	m.pending.On("Put", mock.Anything, mock.AnythingOfType("*domain.PendingPayment")).Return(nil).Run(func(args mock.Arguments) {
		snapshot = args.Get(1).(*domain.PendingPayment)
	})

	var gwReq *gateway.CreateOrderRequest
	m.gw.On("CreatePaymentOrder", mock.Anything, mock.AnythingOfType("*gateway.CreateOrderRequest")).Return(&gateway.PaymentOrder{
		RedirectURL:     "https://pay.example.com/redirect/abc",
		ProviderOrderID: "OMO_1",
	}, nil).Run(func(args mock.Arguments) {
		gwReq = args.Get(1).(*gateway.CreateOrderRequest)
	})

	url, txID, err := m.service().InitiatePayment(context.Background(), InitiatePaymentInput{
		UserID: TestUserID,
		Amount: 119900,
	})

	assert.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/redirect/abc", url)
	assert.True(t, strings.HasPrefix(txID, "ORD_"))

	assert.NotNil(t, snapshot)
	assert.Equal(t, txID, snapshot.MerchantTxID)
	assert.Equal(t, int64(119900), snapshot.Amount)
	assert.Equal(t, items, snapshot.Items)

	assert.NotNil(t, gwReq)
	assert.Equal(t, int64(119900), gwReq.Amount)

	m.gw.AssertExpectations(t)
	m.pending.AssertExpectations(t)
	m.cart.AssertExpectations(t)
}

// The charged amount always comes from the server-side cart snapshot; a
// client claiming a different figure never reaches the gateway.
func TestCheckoutService_InitiatePayment_TamperedAmountRejected(t *testing.T) {
	m := newCheckoutMocks()

	items := []domain.CartLineItem{{ProductID: 7, Quantity: 1, UnitPrice: 159800}}
	m.cart.On("Validate", mock.Anything, TestUserID).Return(&domain.CartValidation{Valid: true}, nil)
	m.cart.On("ListItems", mock.Anything, TestUserID).Return(items, nil)

	url, txID, err := m.service().InitiatePayment(context.Background(), InitiatePaymentInput{
		UserID: TestUserID,
		Amount: 1,
	})

	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Empty(t, url)
	assert.Empty(t, txID)
	m.gw.AssertNotCalled(t, "CreatePaymentOrder", mock.Anything, mock.Anything)
	m.pending.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCheckoutService_InitiatePayment_InvalidCartBlocksInitiation(t *testing.T) {
	m := newCheckoutMocks()

	m.cart.On("Validate", mock.Anything, TestUserID).Return(&domain.CartValidation{
		Valid:  false,
		Issues: []string{"product 7: out of stock"},
	}, nil)

	url, txID, err := m.service().InitiatePayment(context.Background(), InitiatePaymentInput{
		UserID: TestUserID,
	})

	assert.ErrorIs(t, err, ErrCartInvalid)
	assert.Empty(t, url)
	assert.Empty(t, txID)
	m.cart.AssertNotCalled(t, "ListItems", mock.Anything, mock.Anything)
	m.gw.AssertNotCalled(t, "CreatePaymentOrder", mock.Anything, mock.Anything)
}

func TestCheckoutService_InitiatePayment_EmptyCartRejected(t *testing.T) {
	m := newCheckoutMocks()

	m.cart.On("Validate", mock.Anything, TestUserID).Return(&domain.CartValidation{Valid: true}, nil)
	m.cart.On("ListItems", mock.Anything, TestUserID).Return([]domain.CartLineItem{}, nil)

	_, _, err := m.service().InitiatePayment(context.Background(), InitiatePaymentInput{
		UserID: TestUserID,
	})

	assert.ErrorIs(t, err, ErrCartInvalid)
	m.gw.AssertNotCalled(t, "CreatePaymentOrder", mock.Anything, mock.Anything)
}

func TestCheckoutService_InitiatePayment_GatewayError(t *testing.T) {
	m := newCheckoutMocks()

	items := []domain.CartLineItem{{ProductID: 7, Quantity: 1, UnitPrice: 119900}}
	m.cart.On("Validate", mock.Anything, TestUserID).Return(&domain.CartValidation{Valid: true}, nil)
	m.cart.On("ListItems", mock.Anything, TestUserID).Return(items, nil)
	m.pending.On("Put", mock.Anything, mock.Anything).Return(nil)
	m.gw.On("CreatePaymentOrder", mock.Anything, mock.Anything).Return(nil, &gateway.ProviderError{
		Provider: "phonepe", StatusCode: 502, Message: "upstream down",
	})

	url, txID, err := m.service().InitiatePayment(context.Background(), InitiatePaymentInput{
		UserID: TestUserID,
	})

	assert.Error(t, err)
	assert.Empty(t, url)
	assert.Empty(t, txID)

	var pe *gateway.ProviderError
	assert.ErrorAs(t, err, &pe)
}

func TestNewMerchantTxID(t *testing.T) {
	a := NewMerchantTxID("user-123@example.com")
	b := NewMerchantTxID("user-123@example.com")

	assert.True(t, strings.HasPrefix(a, "ORD_"))
	assert.NotEqual(t, a, b)
	// user fragment keeps only alphanumerics
	assert.Contains(t, a, "user12")
}
