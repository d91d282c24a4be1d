package updatestatus

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/order/service/models/order"
	"github.com/marketly/fulfillment/internal/order/transport/http/converters"
)

// service is an interface for the service layer.
type service interface {
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status order.Status) (*order.Order, error)
}

// UpdateStatus handles the administrative status override. Any known status
// is accepted regardless of the current one.
func UpdateStatus(w http.ResponseWriter, r *http.Request, service service) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	status, err := order.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	if _, err := service.UpdateOrderStatus(r.Context(), orderID, status); err != nil {
		converters.WriteError(w, err)
		slog.Error("Error updating order status", "order_id", orderID, "error", err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
