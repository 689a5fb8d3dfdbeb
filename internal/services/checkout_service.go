package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/gateway"
	"checkout-service/internal/infra"
	rabbit "checkout-service/internal/infra/rabbitmq"
	"checkout-service/internal/metrics"
	"checkout-service/internal/pricing"
	"checkout-service/internal/repository"
	"checkout-service/internal/shipping"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// NewMerchantTxID builds the caller-generated id correlating a checkout
// attempt across the client, the gateway and the eventual order row.
func NewMerchantTxID(userID string) string {
	frag := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, userID)
	if len(frag) > 6 {
		frag = frag[:6]
	}
	return fmt.Sprintf("ORD_%d_%s%s", time.Now().Unix(), frag, uuid.New().String()[:8])
}

type CheckoutService struct {
	repo      repository.OrderRepository
	cart      infra.CartClientInterface
	gw        gateway.Gateway
	pricing   *pricing.Engine
	pending   infra.PendingStoreInterface
	publisher rabbit.PublisherInterface
	shipper   shipping.ClientInterface
	baseURL   string
}

func NewCheckoutService(
	repo repository.OrderRepository,
	cart infra.CartClientInterface,
	gw gateway.Gateway,
	engine *pricing.Engine,
	pending infra.PendingStoreInterface,
	publisher rabbit.PublisherInterface,
	baseURL string,
) *CheckoutService {
	return &CheckoutService{
		repo:      repo,
		cart:      cart,
		gw:        gw,
		pricing:   engine,
		pending:   pending,
		publisher: publisher,
		baseURL:   baseURL,
	}
}

// SetShipper wires the shipping provider; shipment creation stays
// best-effort and never fails an order.
func (s *CheckoutService) SetShipper(sh shipping.ClientInterface) {
	s.shipper = sh
}

type CODOrderInput struct {
	UserID     string
	Amount     int64 // client-claimed payable, paise; 0 = accept the computed total
	CouponCode string
	Items      []domain.CartLineItem
	Shipping   domain.Address
}

// PlaceCODOrder creates a cash-on-delivery order immediately; there is no
// gateway leg. The payable amount is always computed server-side from the
// item snapshot; a non-zero client claim that disagrees is rejected.
func (s *CheckoutService) PlaceCODOrder(ctx context.Context, in CODOrderInput) (*domain.Order, int64, error) {
	validation, err := s.cart.Validate(ctx, in.UserID)
	if err != nil {
		return nil, 0, err
	}
	if !validation.Valid {
		return nil, 0, fmt.Errorf("%w: %s", ErrCartInvalid, strings.Join(validation.Issues, "; "))
	}

	totals := s.pricing.ComputeTotals(in.Items, in.CouponCode)
	finalAmount := totals.Total + s.pricing.ShippingCharge(totals.Subtotal) + s.pricing.CODCharge()
	if in.Amount != 0 && in.Amount != finalAmount {
		return nil, 0, fmt.Errorf("%w: claimed %d, computed %d", ErrAmountMismatch, in.Amount, finalAmount)
	}

	order := &domain.Order{
		UserID:          in.UserID,
		TotalAmount:     finalAmount,
		Status:          domain.StatusPending,
		PaymentMethod:   domain.MethodCOD,
		PaymentStatus:   domain.PaymentPending,
		MerchantTxID:    NewMerchantTxID(in.UserID),
		ShippingAddress: in.Shipping,
		Items:           toOrderItems(in.Items),
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		metrics.OrdersTotal.WithLabelValues("cod", "failed").Inc()
		return nil, 0, err
	}
	metrics.OrdersTotal.WithLabelValues("cod", "created").Inc()

	if err := s.cart.Clear(ctx, in.UserID); err != nil {
		log.WithError(err).WithField("user_id", in.UserID).Warn("cart clear failed after order create")
	}

	go s.publishOrderCreated(context.Background(), order)
	go s.createShipment(context.Background(), order)

	return order, finalAmount, nil
}

type InitiatePaymentInput struct {
	UserID       string
	Amount       int64 // client-claimed payable, paise; 0 = accept the computed total
	CouponCode   string
	MobileNumber string
}

// InitiatePayment creates the external payment order and parks a
// PendingPayment snapshot so reconciliation (redirect- or webhook-driven)
// can build the durable order without trusting client-side state. The
// charged amount is computed from the server-side cart snapshot; the cart
// must validate before any money moves, otherwise a paid customer could end
// up with no fulfillable order.
func (s *CheckoutService) InitiatePayment(ctx context.Context, in InitiatePaymentInput) (paymentURL, merchantTxID string, err error) {
	validation, err := s.cart.Validate(ctx, in.UserID)
	if err != nil {
		return "", "", err
	}
	if !validation.Valid {
		return "", "", fmt.Errorf("%w: %s", ErrCartInvalid, strings.Join(validation.Issues, "; "))
	}

	items, err := s.cart.ListItems(ctx, in.UserID)
	if err != nil {
		return "", "", err
	}
	if len(items) == 0 {
		return "", "", fmt.Errorf("%w: empty cart", ErrCartInvalid)
	}
	totals := s.pricing.ComputeTotals(items, in.CouponCode)
	amount := totals.Total + s.pricing.ShippingCharge(totals.Subtotal)
	if in.Amount != 0 && in.Amount != amount {
		return "", "", fmt.Errorf("%w: claimed %d, computed %d", ErrAmountMismatch, in.Amount, amount)
	}

	merchantTxID = NewMerchantTxID(in.UserID)

	if s.pending != nil {
		snap := &domain.PendingPayment{
			MerchantTxID: merchantTxID,
			UserID:       in.UserID,
			Amount:       amount,
			Items:        items,
			CreatedAt:    time.Now(),
		}
		if err := s.pending.Put(ctx, snap); err != nil {
			log.WithError(err).WithField("merchant_tx_id", merchantTxID).Warn("pending payment snapshot not stored")
		}
	}

	order, err := s.gw.CreatePaymentOrder(ctx, &gateway.CreateOrderRequest{
		Amount:       amount,
		MerchantTxID: merchantTxID,
		UserID:       in.UserID,
		MobileNumber: in.MobileNumber,
		RedirectURL:  s.baseURL + "/payment/return?txn=" + merchantTxID,
		CallbackURL:  s.baseURL + "/payment/webhook",
	})
	if err != nil {
		return "", "", err
	}

	return order.RedirectURL, merchantTxID, nil
}

func (s *CheckoutService) GetOrderByID(ctx context.Context, id uint64) (*domain.Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *CheckoutService) publishOrderCreated(ctx context.Context, order *domain.Order) {
	evt := domain.OrderCreatedEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		CreatedAt:     order.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, "order.created", evt); err != nil {
		log.WithError(err).WithField("order_id", order.ID).Error("failed to publish order.created")
	}
}

func (s *CheckoutService) createShipment(ctx context.Context, order *domain.Order) {
	if s.shipper == nil {
		return
	}
	if err := s.shipper.CreateShipment(ctx, order); err != nil {
		log.WithError(err).WithField("order_id", order.ID).Error("shipment creation failed")
	}
}

func toOrderItems(items []domain.CartLineItem) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.OrderItem{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			Price:        it.UnitPrice,
			SelectedSize: it.SelectedSize,
		})
	}
	return out
}
