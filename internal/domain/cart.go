package domain

// CartLineItem is the snapshot the checkout flow totals over. UnitPrice is
// the size-specific price captured at add-to-cart time, not the current
// catalog price.
type CartLineItem struct {
	ProductID    uint64 `json:"productId"`
	Quantity     int64  `json:"quantity"`
	UnitPrice    int64  `json:"unitPrice"` // paise
	SelectedSize string `json:"selectedSize"`
}

// CartTotals is derived, never persisted.
type CartTotals struct {
	Subtotal      int64  `json:"subtotal"`
	Discount      int64  `json:"discount"`
	Total         int64  `json:"total"`
	PromotionText string `json:"promotionText,omitempty"`
}

// CartValidation reports whether the requested quantities can still be
// fulfilled against current stock.
type CartValidation struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}
