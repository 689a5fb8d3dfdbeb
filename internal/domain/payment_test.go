package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    PaymentState
		to      PaymentState
		allowed bool
	}{
		{PaymentInitiated, PaymentStatusChecked, true},
		{PaymentStatusChecked, PaymentVerified, true},
		{PaymentStatusChecked, PaymentRejected, true},
		{PaymentVerified, OrderCreated, true},
		{OrderCreated, PaymentStatusUpdated, true},

		{PaymentInitiated, PaymentVerified, false},
		{PaymentInitiated, OrderCreated, false},
		{PaymentRejected, OrderCreated, false},
		{PaymentVerified, PaymentRejected, false},
		{PaymentStatusUpdated, PaymentInitiated, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransitionTo(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestPaymentState_IsTerminal(t *testing.T) {
	assert.True(t, PaymentRejected.IsTerminal())
	assert.True(t, PaymentStatusUpdated.IsTerminal())
	assert.False(t, PaymentInitiated.IsTerminal())
	assert.False(t, PaymentVerified.IsTerminal())
	assert.False(t, OrderCreated.IsTerminal())
}
