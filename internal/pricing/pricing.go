package pricing

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"checkout-service/internal/domain"
)

// Coupon is code-defined; there is no coupon table. At most one coupon is
// applied to a cart at a time.
type Coupon struct {
	Code              string
	DiscountPercent   int64
	MinOrderThreshold int64 // paise
}

// SiteConfig carries the charges applied on top of the cart total at
// checkout time. Amounts in paise.
type SiteConfig struct {
	FreeShippingThreshold int64
	ShippingCharge        int64
	CODCharge             int64
}

func SiteConfigFromEnv() SiteConfig {
	return SiteConfig{
		FreeShippingThreshold: envInt64("FREE_SHIPPING_THRESHOLD", 99900),
		ShippingCharge:        envInt64("SHIPPING_CHARGE", 9900),
		CODCharge:             envInt64("COD_CHARGE", 4900),
	}
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

type Engine struct {
	coupons map[string]Coupon
	cfg     SiteConfig
}

func NewEngine(cfg SiteConfig, coupons []Coupon) *Engine {
	m := make(map[string]Coupon, len(coupons))
	for _, c := range coupons {
		m[strings.ToUpper(c.Code)] = c
	}
	return &Engine{coupons: m, cfg: cfg}
}

// DefaultCoupons is the active promotion set.
func DefaultCoupons() []Coupon {
	return []Coupon{
		{Code: "FESTIVE10", DiscountPercent: 10, MinOrderThreshold: 119900},
	}
}

// ComputeTotals sums the cart and applies at most one coupon. An unknown or
// ineligible coupon code yields zero discount, not an error.
func (e *Engine) ComputeTotals(items []domain.CartLineItem, couponCode string) domain.CartTotals {
	var subtotal int64
	for _, it := range items {
		subtotal += it.UnitPrice * it.Quantity
	}

	var discount int64
	var promo string
	if couponCode != "" {
		if c, ok := e.coupons[strings.ToUpper(couponCode)]; ok && subtotal >= c.MinOrderThreshold {
			// round half up
			discount = (subtotal*c.DiscountPercent + 50) / 100
			promo = fmt.Sprintf("%s applied: %d%% off", c.Code, c.DiscountPercent)
		}
	}

	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	return domain.CartTotals{
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         total,
		PromotionText: promo,
	}
}

// ShippingCharge is added on top of the cart total at checkout time, never
// folded into CartTotals.
func (e *Engine) ShippingCharge(subtotal int64) int64 {
	if subtotal >= e.cfg.FreeShippingThreshold {
		return 0
	}
	return e.cfg.ShippingCharge
}

func (e *Engine) CODCharge() int64 {
	return e.cfg.CODCharge
}
