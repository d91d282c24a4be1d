package listorders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/marketly/fulfillment/internal/order/service/models/order"
	"github.com/marketly/fulfillment/internal/order/transport/http/converters"
)

// service is an interface for the service layer.
type service interface {
	ListUserOrders(ctx context.Context, userID int64, status *order.Status) ([]order.Order, error)
}

// ListUserOrders handles the list orders request for the requesting user.
// An optional status query param filters the result.
func ListUserOrders(w http.ResponseWriter, r *http.Request, service service) {
	userID, err := strconv.ParseInt(r.Header.Get("X-User-Id"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid X-User-Id header", http.StatusBadRequest)

		return
	}

	var status *order.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := order.ParseStatus(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}
		status = &parsed
	}

	orders, err := service.ListUserOrders(r.Context(), userID, status)
	if err != nil {
		converters.WriteError(w, err)
		slog.Error("Error listing orders", "user_id", userID, "error", err)

		return
	}

	resp := make([]converters.OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, converters.ToOrderResponse(&orders[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Error encoding list orders response", "error", err)
	}
}
