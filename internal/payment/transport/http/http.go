package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/payment/service/models/payment"
	"github.com/marketly/fulfillment/internal/payment/service/services/paymentsvc"
	"github.com/marketly/fulfillment/pkg/http/middleware/trace"
	"github.com/marketly/fulfillment/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type service interface {
	CreatePayment(ctx context.Context, req paymentsvc.CreatePaymentRequest) (*payment.Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	ListPayments(ctx context.Context) ([]payment.Payment, error)
	ListUserPayments(ctx context.Context, userID int64) ([]payment.Payment, error)
	CancelPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	RetryPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	service service
}

func NewHTTPTransport(service service) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:  server,
		router:  router,
		service: service,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api/payments", func(r chi.Router) {
		r.Post("/", h.createPayment)
		r.Get("/", h.listPayments)
		r.Get("/{paymentID}", h.getPayment)
		r.Get("/user/{userID}", h.listUserPayments)
		r.Post("/cancel/{paymentID}", h.cancelPayment)
		r.Post("/retry/{paymentID}", h.retryPayment)
	})
}

// createPaymentRequest represents a manual payment creation request.
type createPaymentRequest struct {
	OrderID       string `json:"orderId"       validate:"required,uuid"`
	UserID        int64  `json:"userId"        validate:"gt=0"`
	Amount        string `json:"amount"        validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"required"`
}

func (h *HTTPTransport) createPayment(w http.ResponseWriter, r *http.Request) {
	req := createPaymentRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}
	if err := validator.New().Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)

		return
	}

	p, err := h.service.CreatePayment(r.Context(), paymentsvc.CreatePaymentRequest{
		OrderID:       orderID,
		UserID:        req.UserID,
		Amount:        amount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(w, err)
		slog.Error("Error creating payment", "error", err)

		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *HTTPTransport) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		http.Error(w, "invalid payment id", http.StatusBadRequest)

		return
	}

	p, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPTransport) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context())
	if err != nil {
		writeError(w, err)
		slog.Error("Error listing payments", "error", err)

		return
	}

	writeJSON(w, http.StatusOK, payments)
}

func (h *HTTPTransport) listUserPayments(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)

		return
	}

	payments, err := h.service.ListUserPayments(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		slog.Error("Error listing user payments", "user_id", userID, "error", err)

		return
	}

	writeJSON(w, http.StatusOK, payments)
}

func (h *HTTPTransport) cancelPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		http.Error(w, "invalid payment id", http.StatusBadRequest)

		return
	}

	p, err := h.service.CancelPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		slog.Error("Error cancelling payment", "payment_id", id, "error", err)

		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPTransport) retryPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		http.Error(w, "invalid payment id", http.StatusBadRequest)

		return
	}

	p, err := h.service.RetryPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		slog.Error("Error retrying payment", "payment_id", id, "error", err)

		return
	}

	writeJSON(w, http.StatusOK, p)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, payment.ErrPaymentNotRetryable):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware("payment-svc"))

	c := cors.New(cors.Options{
		AllowedOrigins:   viper.GetStringSlice("server.http.cors.allowed_origins"),
		AllowedMethods:   viper.GetStringSlice("server.http.cors.allowed_methods"),
		AllowedHeaders:   viper.GetStringSlice("server.http.cors.allowed_headers"),
		ExposedHeaders:   viper.GetStringSlice("server.http.cors.exposed_headers"),
		AllowCredentials: viper.GetBool("server.http.cors.allow_credentials"),
		MaxAge:           viper.GetInt("server.http.cors.max_age"),
	})
	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
