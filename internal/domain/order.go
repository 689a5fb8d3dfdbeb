package domain

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodCOD    PaymentMethod = "cod"
	MethodOnline PaymentMethod = "online"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// Address is the shipping destination snapshot stored with the order.
type Address struct {
	Name    string `json:"name" gorm:"size:128"`
	Phone   string `json:"phone" gorm:"size:20"`
	Line1   string `json:"line1" gorm:"size:255"`
	Line2   string `json:"line2" gorm:"size:255"`
	City    string `json:"city" gorm:"size:64"`
	State   string `json:"state" gorm:"size:64"`
	Pincode string `json:"pincode" gorm:"size:10"`
}

type Order struct {
	ID            uint64        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        string        `json:"userId" gorm:"size:64;not null;index"`
	TotalAmount   int64         `json:"totalAmount" gorm:"not null"` // paise
	Status        OrderStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentMethod PaymentMethod `json:"paymentMethod" gorm:"type:varchar(10);not null"`
	PaymentStatus PaymentStatus `json:"paymentStatus" gorm:"type:varchar(10);not null;default:'pending'"`
	// MerchantTxID correlates an online payment across the gateway and this
	// order. The unique index is the last line of defense against a
	// double-create slipping past the reconciliation lock.
	MerchantTxID    string      `json:"merchantTransactionId" gorm:"column:merchant_transaction_id;size:64;not null;uniqueIndex"`
	ShippingAddress Address     `json:"shippingAddress" gorm:"embedded;embeddedPrefix:ship_"`
	Items           []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time   `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time   `json:"updatedAt" gorm:"autoUpdateTime"`
}

// OrderItem is a point-in-time snapshot; Price is the unit price at
// add-to-cart time and never changes after creation.
type OrderItem struct {
	ID           uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID      uint64 `json:"orderId" gorm:"not null;index"`
	ProductID    uint64 `json:"productId" gorm:"not null;index"`
	Quantity     int64  `json:"quantity" gorm:"not null"`
	Price        int64  `json:"price" gorm:"not null"` // paise
	SelectedSize string `json:"selectedSize" gorm:"size:16"`
}

type Product struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Price     int64     `json:"price" gorm:"not null"` // paise
	Stock     int64     `json:"stock" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
