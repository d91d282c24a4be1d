package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/order/service/models/order"
	"github.com/marketly/fulfillment/internal/order/service/services/ordersvc"
	cancelorder "github.com/marketly/fulfillment/internal/order/transport/http/cancel_order"
	createorder "github.com/marketly/fulfillment/internal/order/transport/http/create_order"
	getorder "github.com/marketly/fulfillment/internal/order/transport/http/get_order"
	listorders "github.com/marketly/fulfillment/internal/order/transport/http/list_orders"
	updateorder "github.com/marketly/fulfillment/internal/order/transport/http/update_order"
	updatestatus "github.com/marketly/fulfillment/internal/order/transport/http/update_status"
	"github.com/marketly/fulfillment/pkg/http/middleware/trace"
	"github.com/marketly/fulfillment/pkg/logger"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type service interface {
	CreateOrder(ctx context.Context, userID int64, req ordersvc.CreateOrderRequest) (*order.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, userID int64) (*order.Order, error)
	ListUserOrders(ctx context.Context, userID int64, status *order.Status) ([]order.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status order.Status) (*order.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, userID int64, req ordersvc.UpdateOrderRequest) (*order.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, userID int64) error
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
	h.router.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/user", h.listUserOrders)
		r.Get("/{orderID}", h.getOrder)
		r.Patch("/{orderID}/status", h.updateStatus)
		r.Patch("/{orderID}", h.updateOrder)
		r.Delete("/{orderID}", h.cancelOrder)
	})

	h.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	h.router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, viper.GetString("server.http.swagger_path"))
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.service)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.service)
}

func (h *HTTPTransport) listUserOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListUserOrders(w, r, h.service)
}

func (h *HTTPTransport) updateStatus(w http.ResponseWriter, r *http.Request) {
	updatestatus.UpdateStatus(w, r, h.service)
}

func (h *HTTPTransport) updateOrder(w http.ResponseWriter, r *http.Request) {
	updateorder.UpdateOrder(w, r, h.service)
}

func (h *HTTPTransport) cancelOrder(w http.ResponseWriter, r *http.Request) {
	cancelorder.CancelOrder(w, r, h.service)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware("order-svc"))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
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
