package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/notification/service/models/notification"
	"github.com/marketly/fulfillment/internal/notification/service/services/notificationsvc"
	"github.com/marketly/fulfillment/pkg/http/middleware/trace"
	"github.com/marketly/fulfillment/pkg/logger"
	"github.com/spf13/viper"
)

type service interface {
	CreateNotification(ctx context.Context, req notificationsvc.CreateNotificationRequest) (*notification.Notification, error)
	SendNotification(ctx context.Context, n *notification.Notification) error
	RetryNotification(ctx context.Context, id uuid.UUID) (*notification.Notification, error)
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
	h.router.Route("/api/v1/notifications", func(r chi.Router) {
		r.Post("/send", h.sendNotification)
		r.Post("/retry/{notificationID}", h.retryNotification)
	})
	h.router.Get("/health", h.health)
}

// sendNotificationRequest represents a direct send request.
type sendNotificationRequest struct {
	Type      string `json:"type"      validate:"required"`
	Channel   string `json:"channel"   validate:"required,oneof=EMAIL SMS"`
	Recipient string `json:"recipient" validate:"required"`
	Subject   string `json:"subject"`
	Content   string `json:"content"   validate:"required"`
	UserID    int64  `json:"userId"`
}

// sendNotification creates a notification and attempts delivery right away.
// The notification is returned with its resulting status either way.
func (h *HTTPTransport) sendNotification(w http.ResponseWriter, r *http.Request) {
	req := sendNotificationRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}
	if err := validator.New().Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	n, err := h.service.CreateNotification(r.Context(), notificationsvc.CreateNotificationRequest{
		Type:      notification.Type(req.Type),
		Channel:   notification.Channel(req.Channel),
		Recipient: req.Recipient,
		Subject:   req.Subject,
		Content:   req.Content,
		UserID:    req.UserID,
	})
	if err != nil {
		writeError(w, err)
		slog.Error("Error creating notification", "error", err)

		return
	}

	if err := h.service.SendNotification(r.Context(), n); err != nil {
		slog.Error("Error sending notification", "notification_id", n.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, n)
}

func (h *HTTPTransport) retryNotification(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "notificationID"))
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)

		return
	}

	n, err := h.service.RetryNotification(r.Context(), id)
	if err != nil {
		writeError(w, err)
		slog.Error("Error retrying notification", "notification_id", id, "error", err)

		return
	}

	writeJSON(w, http.StatusOK, n)
}

func (h *HTTPTransport) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
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
	case errors.Is(err, notification.ErrNotificationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, notification.ErrNotificationNotRetryable):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware("notification-svc"))

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
