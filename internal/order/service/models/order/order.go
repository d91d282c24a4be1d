package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/order/service/models/orderitem"
	"github.com/shopspring/decimal"
)

var (
	// ErrOrderNotFound reports that no order matched the id (and, where
	// applicable, the requesting user).
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderCancellation reports a cancel attempt on an order that is not
	// in CREATED status.
	ErrOrderCancellation = errors.New("only CREATED orders can be cancelled")
)

// Status is the lifecycle status of an order. CREATED is the only initial
// status. CREATED -> CANCELLED is the only validated transition; every other
// status is settable through the administrative status override.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus parses a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusCreated, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}

	return "", fmt.Errorf("unknown order status: %q", s)
}

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "CARD"
	PaymentMethodPaypal         PaymentMethod = "PAYPAL"
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

// ParsePaymentMethod parses a payment method string.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentMethodCard, PaymentMethodPaypal, PaymentMethodCashOnDelivery:
		return PaymentMethod(s), nil
	}

	return "", fmt.Errorf("unknown payment method: %q", s)
}

// DeliveryType is how the order is delivered.
type DeliveryType string

const (
	DeliveryTypeCourier DeliveryType = "COURIER"
	DeliveryTypePickup  DeliveryType = "PICKUP"
)

// ParseDeliveryType parses a delivery type string.
func ParseDeliveryType(s string) (DeliveryType, error) {
	switch DeliveryType(s) {
	case DeliveryTypeCourier, DeliveryTypePickup:
		return DeliveryType(s), nil
	}

	return "", fmt.Errorf("unknown delivery type: %q", s)
}

// Order represents an order aggregate. Items are owned by the order and are
// deleted with it.
type Order struct {
	ID              uuid.UUID             `json:"id"`
	UserID          int64                 `json:"userId"`
	Status          Status                `json:"status"`
	ShippingAddress string                `json:"shippingAddress"`
	CustomerNotes   string                `json:"customerNotes"`
	PaymentMethod   PaymentMethod         `json:"paymentMethod"`
	DeliveryType    DeliveryType          `json:"deliveryType"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	Items           []orderitem.OrderItem `json:"items"`
}

// Total is the order total, always recomputed from the items and never
// stored independently of them.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}

	return total
}
