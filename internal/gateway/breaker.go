package gateway

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerGateway wraps a Gateway with a circuit breaker so a hung or failing
// provider sheds load fast instead of tying up every checkout request. An
// open circuit surfaces as an error, which the reconciliation layer treats
// as an unverifiable payment and fails closed.
type BreakerGateway struct {
	inner Gateway
	cb    *gobreaker.CircuitBreaker
}

func WithBreaker(name string, inner Gateway) *BreakerGateway {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("payment gateway circuit state changed")
		},
	})
	return &BreakerGateway{inner: inner, cb: cb}
}

func (b *BreakerGateway) CreatePaymentOrder(ctx context.Context, req *CreateOrderRequest) (*PaymentOrder, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.CreatePaymentOrder(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*PaymentOrder), nil
}

func (b *BreakerGateway) CheckStatus(ctx context.Context, merchantTxID string) (*StatusResult, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.CheckStatus(ctx, merchantTxID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*StatusResult), nil
}

func (b *BreakerGateway) VerifyCallbackSignature(header string, payload []byte) bool {
	return b.inner.VerifyCallbackSignature(header, payload)
}

var _ Gateway = (*BreakerGateway)(nil)
