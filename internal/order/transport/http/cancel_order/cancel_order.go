package cancelorder

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/order/transport/http/converters"
)

// service is an interface for the service layer.
type service interface {
	CancelOrder(ctx context.Context, orderID uuid.UUID, userID int64) error
}

// CancelOrder handles the cancel order request. Only CREATED orders can be
// cancelled.
func CancelOrder(w http.ResponseWriter, r *http.Request, service service) {
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

	if err := service.CancelOrder(r.Context(), orderID, userID); err != nil {
		converters.WriteError(w, err)
		slog.Error("Error cancelling order", "order_id", orderID, "error", err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
