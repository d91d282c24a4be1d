package updatestatus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/order/service/models/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	orderID uuid.UUID
	status  order.Status
	err     error
}

func (s *fakeService) UpdateOrderStatus(_ context.Context, orderID uuid.UUID, status order.Status) (*order.Order, error) {
	s.orderID = orderID
	s.status = status
	if s.err != nil {
		return nil, s.err
	}

	return &order.Order{ID: orderID, Status: status}, nil
}

func newRouter(svc *fakeService) *chi.Mux {
	router := chi.NewRouter()
	router.Patch("/api/v1/orders/{orderID}/status", func(w http.ResponseWriter, r *http.Request) {
		UpdateStatus(w, r, svc)
	})

	return router
}

func TestUpdateStatusRespondsNoContent(t *testing.T) {
	svc := &fakeService{}
	orderID := uuid.New()

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status?status=PAID", nil)
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, orderID, svc.orderID)
	assert.Equal(t, order.StatusPaid, svc.status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := &fakeService{}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+uuid.NewString()+"/status?status=BOGUS", nil)
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc := &fakeService{err: order.ErrOrderNotFound}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+uuid.NewString()+"/status?status=PAID", nil)
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
