package services

import (
	"context"
	"fmt"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/gateway"
	"checkout-service/internal/infra"
	rabbit "checkout-service/internal/infra/rabbitmq"
	"checkout-service/internal/lock"
	"checkout-service/internal/metrics"
	"checkout-service/internal/repository"
	"checkout-service/internal/shipping"

	log "github.com/sirupsen/logrus"
)

const verifyLockTTL = 30 * time.Second

type VerifyResult struct {
	Order            *domain.Order
	TransactionID    string
	State            gateway.State
	AlreadyProcessed bool
}

// ReconcileService drives a payment from "initiated" through gateway
// verification to a durable order. Both the redirect-triggered verify call
// and the webhook path land here, so at-most-one order per merchant
// transaction is this service's problem.
type ReconcileService struct {
	repo      repository.OrderRepository
	gw        gateway.Gateway
	cart      infra.CartClientInterface
	locker    lock.Locker
	pending   infra.PendingStoreInterface
	publisher rabbit.PublisherInterface
	shipper   shipping.ClientInterface
}

func NewReconcileService(
	repo repository.OrderRepository,
	gw gateway.Gateway,
	cart infra.CartClientInterface,
	locker lock.Locker,
	pending infra.PendingStoreInterface,
	publisher rabbit.PublisherInterface,
) *ReconcileService {
	return &ReconcileService{
		repo:      repo,
		gw:        gw,
		cart:      cart,
		locker:    locker,
		pending:   pending,
		publisher: publisher,
	}
}

func (s *ReconcileService) SetShipper(sh shipping.ClientInterface) {
	s.shipper = sh
}

// VerifyPayment reconciles one merchant transaction. meta is the order
// metadata the client carried through the redirect; it supplements the
// server-side snapshot taken at initiation (the webhook path passes nil).
//
// An unverifiable payment is never trusted: any gateway failure fails
// closed with no order created.
func (s *ReconcileService) VerifyPayment(ctx context.Context, merchantTxID string, meta *domain.PendingPayment) (*VerifyResult, error) {
	state := domain.PaymentInitiated

	status, err := s.gw.CheckStatus(ctx, merchantTxID)
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	s.advance(merchantTxID, &state, domain.PaymentStatusChecked)

	if status.State != gateway.StateCompleted {
		s.advance(merchantTxID, &state, domain.PaymentRejected)
		metrics.PaymentVerifications.WithLabelValues("rejected").Inc()
		return &VerifyResult{State: status.State}, fmt.Errorf("%w: gateway state %s", ErrPaymentNotCompleted, status.State)
	}
	s.advance(merchantTxID, &state, domain.PaymentVerified)

	// Serialize concurrent attempts for this transaction. An unobtainable
	// lock does not hard-fail the checkout: the idempotency check plus the
	// unique index on merchant_transaction_id still prevent a double-create.
	token, acquired, err := s.locker.Acquire(ctx, merchantTxID, verifyLockTTL)
	if err != nil || !acquired {
		log.WithError(err).WithField("merchant_tx_id", merchantTxID).
			Warn("verify lock not acquired, proceeding on idempotency check")
	} else {
		defer func() {
			if rerr := s.locker.Release(context.Background(), merchantTxID, token); rerr != nil {
				log.WithError(rerr).WithField("merchant_tx_id", merchantTxID).
					Warn("verify lock release failed, TTL will reclaim it")
			}
		}()
	}

	existing, err := s.repo.FindByMerchantTxID(ctx, merchantTxID)
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("lookup_failed").Inc()
		return nil, err
	}
	if existing != nil {
		metrics.PaymentVerifications.WithLabelValues("already_processed").Inc()
		return &VerifyResult{
			Order:            existing,
			TransactionID:    status.TransactionID,
			State:            status.State,
			AlreadyProcessed: true,
		}, nil
	}

	resolved, err := s.resolveMeta(ctx, merchantTxID, meta)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:          resolved.UserID,
		TotalAmount:     resolved.Amount,
		Status:          domain.StatusPending,
		PaymentMethod:   domain.MethodOnline,
		PaymentStatus:   domain.PaymentPending,
		MerchantTxID:    merchantTxID,
		ShippingAddress: resolved.Shipping,
		Items:           toOrderItems(resolved.Items),
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		metrics.OrdersTotal.WithLabelValues("online", "failed").Inc()
		metrics.PaymentVerifications.WithLabelValues("persist_failed").Inc()
		return nil, err
	}
	s.advance(merchantTxID, &state, domain.OrderCreated)
	metrics.OrdersTotal.WithLabelValues("online", "created").Inc()

	if err := s.repo.UpdatePaymentStatus(ctx, order.ID, domain.PaymentPaid); err != nil {
		// The order exists; its payment status stays pending until a
		// follow-up reconciliation pass repairs it from gateway status.
		log.WithError(err).WithField("order_id", order.ID).
			Error("payment status update failed after order create")
	} else {
		order.PaymentStatus = domain.PaymentPaid
		s.advance(merchantTxID, &state, domain.PaymentStatusUpdated)
	}

	s.afterCapture(ctx, order, status.TransactionID, resolved.UserID)

	metrics.PaymentVerifications.WithLabelValues("success").Inc()
	metrics.PaymentAmount.Observe(float64(order.TotalAmount) / 100)

	return &VerifyResult{
		Order:         order,
		TransactionID: status.TransactionID,
		State:         status.State,
	}, nil
}

// resolveMeta prefers the snapshot stored at initiation and fills gaps from
// the client-supplied metadata.
func (s *ReconcileService) resolveMeta(ctx context.Context, merchantTxID string, meta *domain.PendingPayment) (*domain.PendingPayment, error) {
	var snap *domain.PendingPayment
	if s.pending != nil {
		var err error
		snap, err = s.pending.Get(ctx, merchantTxID)
		if err != nil {
			log.WithError(err).WithField("merchant_tx_id", merchantTxID).
				Warn("pending payment snapshot unavailable")
		}
	}

	if snap == nil {
		snap = meta
	} else if meta != nil {
		if len(snap.Items) == 0 {
			snap.Items = meta.Items
		}
		if snap.Shipping == (domain.Address{}) {
			snap.Shipping = meta.Shipping
		}
		if snap.Amount == 0 {
			snap.Amount = meta.Amount
		}
		if snap.UserID == "" {
			snap.UserID = meta.UserID
		}
	}

	if snap == nil || len(snap.Items) == 0 || snap.Amount <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrOrderMetaMissing, merchantTxID)
	}
	return snap, nil
}

func (s *ReconcileService) afterCapture(ctx context.Context, order *domain.Order, transactionID, userID string) {
	if s.pending != nil {
		if err := s.pending.Delete(ctx, order.MerchantTxID); err != nil {
			log.WithError(err).WithField("merchant_tx_id", order.MerchantTxID).
				Warn("pending payment snapshot not discarded")
		}
	}

	if userID != "" {
		if err := s.cart.Clear(ctx, userID); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("cart clear failed after capture")
		}
	}

	go func() {
		bg := context.Background()
		evt := domain.PaymentCapturedEvent{
			OrderID:       order.ID,
			MerchantTxID:  order.MerchantTxID,
			TransactionID: transactionID,
			Amount:        order.TotalAmount,
			CapturedAt:    time.Now(),
		}
		if err := s.publisher.Publish(bg, "payment.captured", evt); err != nil {
			log.WithError(err).WithField("order_id", order.ID).Error("failed to publish payment.captured")
		}

		created := domain.OrderCreatedEvent{
			OrderID:       order.ID,
			UserID:        order.UserID,
			TotalAmount:   order.TotalAmount,
			PaymentMethod: order.PaymentMethod,
			CreatedAt:     order.CreatedAt,
		}
		if err := s.publisher.Publish(bg, "order.created", created); err != nil {
			log.WithError(err).WithField("order_id", order.ID).Error("failed to publish order.created")
		}

		if s.shipper != nil {
			if err := s.shipper.CreateShipment(bg, order); err != nil {
				log.WithError(err).WithField("order_id", order.ID).Error("shipment creation failed")
			}
		}
	}()
}

// advance enforces the reconciliation state order. A refused transition is
// a bug, not a runtime condition, so it is logged loudly rather than
// returned.
func (s *ReconcileService) advance(merchantTxID string, state *domain.PaymentState, next domain.PaymentState) {
	if !domain.CanTransitionTo(*state, next) {
		log.WithFields(log.Fields{
			"merchant_tx_id": merchantTxID,
			"from":           state.String(),
			"to":             next.String(),
		}).Error("illegal payment state transition")
		return
	}
	*state = next
}
