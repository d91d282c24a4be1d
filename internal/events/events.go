// Package events defines the bus topics and JSON payloads shared by the
// fulfillment services, plus thin Kafka publisher/consumer wrappers.
//
// Delivery is at-least-once: consumers must expect redelivery. Ordering is
// guaranteed only within a partition; producers key messages by orderId or
// userId so events about the same aggregate stay ordered.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicOrderPaymentRequested = "order-payment-requested"
	TopicOrderEvents           = "order-events"
	TopicUserEvents            = "user-events"
	TopicUserCreated           = "user-created"
	TopicUserUpdated           = "user-updated"
	TopicUserDeleted           = "user-deleted"
)

// OrderPaymentRequested asks the payment ledger to open a payment record.
// No idempotency key is attached: a redelivered message opens a second record.
type OrderPaymentRequested struct {
	OrderID       uuid.UUID       `json:"orderId"`
	UserID        int64           `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
}

// OrderEvent describes an order lifecycle change for the notification
// dispatcher. PreviousStatus and NewStatus are both set only on status
// transitions; their presence is what distinguishes a status update from a
// creation.
type OrderEvent struct {
	OrderID        uuid.UUID       `json:"orderId"`
	UserID         int64           `json:"userId"`
	UserEmail      string          `json:"userEmail"`
	UserName       string          `json:"userName"`
	OrderNumber    string          `json:"orderNumber"`
	OrderStatus    string          `json:"orderStatus"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	OrderDate      time.Time       `json:"orderDate"`
	PreviousStatus string          `json:"previousStatus,omitempty"`
	NewStatus      string          `json:"newStatus,omitempty"`
}

// UserEvent describes a user lifecycle change for the notification
// dispatcher. EventType is one of a closed set of tags; unrecognized tags
// are treated as USER_REGISTERED by the consumer.
type UserEvent struct {
	UserID    int64     `json:"userId"`
	UserEmail string    `json:"userEmail"`
	UserName  string    `json:"userName"`
	EventType string    `json:"eventType"`
	EventDate time.Time `json:"eventDate"`
	Reason    string    `json:"reason,omitempty"`
}

// UserProfileEvent propagates identity changes to local user caches.
type UserProfileEvent struct {
	UserID   int64  `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}
