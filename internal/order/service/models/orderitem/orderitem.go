package orderitem

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a line of an order. Name and price are snapshots taken at
// order time and are decoupled from the live catalog; an item is immutable
// after the order is created.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
