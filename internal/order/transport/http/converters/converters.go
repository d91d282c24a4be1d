// Package converters holds the HTTP representations of orders and the
// shared error mapping for the order handlers.
package converters

import (
	"errors"
	"net/http"
	"time"

	"github.com/marketly/fulfillment/internal/order/service/models/order"
	"github.com/marketly/fulfillment/internal/order/service/models/orderitem"
)

// ItemResponse represents an order item in HTTP responses.
type ItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"productName"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

// OrderResponse represents an order in HTTP responses. Total is recomputed
// from the items.
type OrderResponse struct {
	ID              string         `json:"id"`
	UserID          int64          `json:"userId"`
	Status          string         `json:"status"`
	ShippingAddress string         `json:"shippingAddress"`
	CustomerNotes   string         `json:"customerNotes,omitempty"`
	PaymentMethod   string         `json:"paymentMethod"`
	DeliveryType    string         `json:"deliveryType"`
	TotalAmount     string         `json:"totalAmount"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	Items           []ItemResponse `json:"items"`
}

// ToItemResponse converts an order item model to its HTTP representation.
func ToItemResponse(item orderitem.OrderItem) ItemResponse {
	return ItemResponse{
		ID:        item.ID.String(),
		ProductID: item.ProductID.String(),
		Name:      item.Name,
		Price:     item.Price.String(),
		Quantity:  item.Quantity,
		Subtotal:  item.Subtotal().String(),
	}
}

// ToOrderResponse converts an order model to its HTTP representation.
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]ItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ToItemResponse(item))
	}

	return OrderResponse{
		ID:              o.ID.String(),
		UserID:          o.UserID,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		CustomerNotes:   o.CustomerNotes,
		PaymentMethod:   string(o.PaymentMethod),
		DeliveryType:    string(o.DeliveryType),
		TotalAmount:     o.Total().String(),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           items,
	}
}

// WriteError maps a service error to an HTTP status.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, order.ErrOrderCancellation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
