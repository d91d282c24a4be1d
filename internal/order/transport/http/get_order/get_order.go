package getorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/order/service/models/order"
	"github.com/marketly/fulfillment/internal/order/transport/http/converters"
)

// service is an interface for the service layer.
type service interface {
	GetOrder(ctx context.Context, orderID uuid.UUID, userID int64) (*order.Order, error)
}

// GetOrder handles the get order request.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
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

	o, err := service.GetOrder(r.Context(), orderID, userID)
	if err != nil {
		converters.WriteError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(converters.ToOrderResponse(o)); err != nil {
		slog.Error("Error encoding get order response", "error", err)
	}
}
