package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/marketly/fulfillment/internal/order/service/models/order"
	"github.com/marketly/fulfillment/internal/order/service/services/ordersvc"
	"github.com/marketly/fulfillment/internal/order/transport/http/converters"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, userID int64, req ordersvc.CreateOrderRequest) (*order.Order, error)
}

// createOrderRequest represents a create order request. Items come from the
// cart snapshot, not from the body.
type createOrderRequest struct {
	ShippingAddress string `json:"shippingAddress" validate:"required"`
	CustomerNotes   string `json:"customerNotes"`
	PaymentMethod   string `json:"paymentMethod"   validate:"required"`
	DeliveryType    string `json:"deliveryType"    validate:"required"`
}

// Validate validates the create order request.
func (r *createOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

// toModel converts createOrderRequest to ordersvc.CreateOrderRequest.
func (r *createOrderRequest) toModel() (*ordersvc.CreateOrderRequest, error) {
	method, err := order.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return nil, err
	}

	delivery, err := order.ParseDeliveryType(r.DeliveryType)
	if err != nil {
		return nil, err
	}

	return &ordersvc.CreateOrderRequest{
		ShippingAddress: r.ShippingAddress,
		CustomerNotes:   r.CustomerNotes,
		PaymentMethod:   method,
		DeliveryType:    delivery,
	}, nil
}

// CreateOrder handles the create order request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	userID, err := strconv.ParseInt(r.Header.Get("X-User-Id"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid X-User-Id header", http.StatusBadRequest)

		return
	}

	req := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for create order", "error", err)

		return
	}

	model, err := req.toModel()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	o, err := service.CreateOrder(r.Context(), userID, *model)
	if err != nil {
		converters.WriteError(w, err)
		slog.Error("Error creating order", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/api/v1/orders/"+o.ID.String())
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(converters.ToOrderResponse(o)); err != nil {
		slog.Error("Error encoding create order response", "error", err)
	}
}
