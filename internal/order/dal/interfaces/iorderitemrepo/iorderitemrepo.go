package iorderitemrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/order/service/models/orderitem"
)

// IOrderItemRepository defines the interface for order item persistence.
type IOrderItemRepository interface {
	// BulkInsert adds the items of an order in a single statement.
	BulkInsert(ctx context.Context, items []orderitem.OrderItem) error

	// ListByOrderIDs retrieves the items of the given orders.
	ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]orderitem.OrderItem, error)
}
