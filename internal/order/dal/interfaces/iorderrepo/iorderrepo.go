package iorderrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/order/service/models/order"
)

// IOrderRepository defines the interface for order persistence.
type IOrderRepository interface {
	// Insert adds a new order row. Items are persisted separately.
	Insert(ctx context.Context, o order.Order) error

	// GetByID retrieves an order without an ownership check.
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)

	// GetByIDAndUserID retrieves an order scoped to the requesting user.
	GetByIDAndUserID(ctx context.Context, id uuid.UUID, userID int64) (*order.Order, error)

	// ListByUserID retrieves a user's orders, optionally filtered by status.
	ListByUserID(ctx context.Context, userID int64, status *order.Status) ([]order.Order, error)

	// UpdateStatus sets the status of an order.
	UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) error

	// Update persists the mutable order fields (address, notes, delivery).
	Update(ctx context.Context, o order.Order) error
}
