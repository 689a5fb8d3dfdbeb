package pricing

import (
	"testing"

	"checkout-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func testEngine() *Engine {
	return NewEngine(SiteConfig{
		FreeShippingThreshold: 99900,
		ShippingCharge:        9900,
		CODCharge:             4900,
	}, []Coupon{
		{Code: "FESTIVE10", DiscountPercent: 10, MinOrderThreshold: 119900},
	})
}

func TestEngine_ComputeTotals(t *testing.T) {
	tests := []struct {
		name             string
		items            []domain.CartLineItem
		couponCode       string
		expectedSubtotal int64
		expectedDiscount int64
		expectedTotal    int64
	}{
		{
			name: "subtotal sums unit price times quantity",
			items: []domain.CartLineItem{
				{ProductID: 1, Quantity: 2, UnitPrice: 50000},
				{ProductID: 2, Quantity: 1, UnitPrice: 30000},
			},
			expectedSubtotal: 130000,
			expectedTotal:    130000,
		},
		{
			name: "coupon applies at threshold exactly",
			items: []domain.CartLineItem{
				{ProductID: 1, Quantity: 1, UnitPrice: 119900},
			},
			couponCode:       "FESTIVE10",
			expectedSubtotal: 119900,
			expectedDiscount: 11990,
			expectedTotal:    107910,
		},
		{
			name: "coupon ineligible one paisa below threshold",
			items: []domain.CartLineItem{
				{ProductID: 1, Quantity: 1, UnitPrice: 119899},
			},
			couponCode:       "FESTIVE10",
			expectedSubtotal: 119899,
			expectedDiscount: 0,
			expectedTotal:    119899,
		},
		{
			name: "unknown coupon silently ignored",
			items: []domain.CartLineItem{
				{ProductID: 1, Quantity: 1, UnitPrice: 200000},
			},
			couponCode:       "NOSUCHCODE",
			expectedSubtotal: 200000,
			expectedDiscount: 0,
			expectedTotal:    200000,
		},
		{
			name: "coupon code is case insensitive",
			items: []domain.CartLineItem{
				{ProductID: 1, Quantity: 1, UnitPrice: 119900},
			},
			couponCode:       "festive10",
			expectedSubtotal: 119900,
			expectedDiscount: 11990,
			expectedTotal:    107910,
		},
		{
			name:             "empty cart",
			items:            nil,
			couponCode:       "FESTIVE10",
			expectedSubtotal: 0,
			expectedDiscount: 0,
			expectedTotal:    0,
		},
	}

	e := testEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := e.ComputeTotals(tt.items, tt.couponCode)
			assert.Equal(t, tt.expectedSubtotal, totals.Subtotal)
			assert.Equal(t, tt.expectedDiscount, totals.Discount)
			assert.Equal(t, tt.expectedTotal, totals.Total)
		})
	}
}

func TestEngine_TotalFlooredAtZero(t *testing.T) {
	e := NewEngine(SiteConfig{}, []Coupon{
		{Code: "EVERYTHING", DiscountPercent: 150, MinOrderThreshold: 0},
	})

	totals := e.ComputeTotals([]domain.CartLineItem{
		{ProductID: 1, Quantity: 1, UnitPrice: 10000},
	}, "EVERYTHING")

	assert.Equal(t, int64(15000), totals.Discount)
	assert.Equal(t, int64(0), totals.Total)
}

func TestEngine_ShippingCharge(t *testing.T) {
	e := testEngine()

	assert.Equal(t, int64(9900), e.ShippingCharge(99899))
	assert.Equal(t, int64(0), e.ShippingCharge(99900))
	assert.Equal(t, int64(0), e.ShippingCharge(250000))
}

func TestEngine_CODCharge(t *testing.T) {
	e := testEngine()
	assert.Equal(t, int64(4900), e.CODCharge())
}
