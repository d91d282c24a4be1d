package updateorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/order/service/models/order"
	"github.com/marketly/fulfillment/internal/order/service/services/ordersvc"
	"github.com/marketly/fulfillment/internal/order/transport/http/converters"
)

// service is an interface for the service layer.
type service interface {
	UpdateOrder(ctx context.Context, orderID uuid.UUID, userID int64, req ordersvc.UpdateOrderRequest) (*order.Order, error)
}

// updateOrderRequest represents an update order request. Absent fields are
// left unchanged.
type updateOrderRequest struct {
	ShippingAddress *string `json:"shippingAddress"`
	CustomerNotes   *string `json:"customerNotes"`
	DeliveryType    *string `json:"deliveryType"`
}

// toModel converts updateOrderRequest to ordersvc.UpdateOrderRequest.
func (r *updateOrderRequest) toModel() (*ordersvc.UpdateOrderRequest, error) {
	model := &ordersvc.UpdateOrderRequest{
		ShippingAddress: r.ShippingAddress,
		CustomerNotes:   r.CustomerNotes,
	}

	if r.DeliveryType != nil {
		delivery, err := order.ParseDeliveryType(*r.DeliveryType)
		if err != nil {
			return nil, err
		}
		model.DeliveryType = &delivery
	}

	return model, nil
}

// UpdateOrder handles the update order request.
func UpdateOrder(w http.ResponseWriter, r *http.Request, service service) {
	userID, err := strconv.ParseInt(r.Header.Get("X-User-Id"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid X-User-Id header", http.StatusBadRequest)

		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	req := updateOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for update order", "error", err)

		return
	}

	model, err := req.toModel()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	o, err := service.UpdateOrder(r.Context(), orderID, userID, *model)
	if err != nil {
		converters.WriteError(w, err)
		slog.Error("Error updating order", "order_id", orderID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(converters.ToOrderResponse(o)); err != nil {
		slog.Error("Error encoding update order response", "error", err)
	}
}
