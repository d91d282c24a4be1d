package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/events"
	"github.com/marketly/fulfillment/internal/order/dal/interfaces/iorderitemrepo"
	"github.com/marketly/fulfillment/internal/order/dal/interfaces/iorderrepo"
	"github.com/marketly/fulfillment/internal/order/dal/interfaces/ioutboxrepo"
	"github.com/marketly/fulfillment/internal/order/dal/uow"
	"github.com/marketly/fulfillment/internal/order/gateway/cart"
	"github.com/marketly/fulfillment/internal/order/gateway/inventory"
	"github.com/marketly/fulfillment/internal/order/service/models/order"
	"github.com/marketly/fulfillment/internal/order/service/models/orderitem"
	"github.com/marketly/fulfillment/internal/order/service/models/outbox"
	"github.com/marketly/fulfillment/internal/order/usercache"
	"github.com/marketly/fulfillment/internal/pkg/postgres"
	"go.opentelemetry.io/otel"
)

const outboxMaxRetries = 5

// OrderService owns the order lifecycle: creation from a cart snapshot,
// status changes, cancellation, and the outbox rows that fan the changes out
// to the bus.
type OrderService struct {
	pgClient     *postgres.Client
	cartGateway  cartGateway
	invGateway   inventoryGateway
	userProfiles userCache
	newUOW       func() unitOfWork
}

type cartGateway interface {
	GetCart(ctx context.Context, userID int64) cart.Cart
	ClearCart(ctx context.Context, userID int64) error
}

type inventoryGateway interface {
	UpdateStockBatch(ctx context.Context, updates []inventory.StockUpdate) error
	ReturnStockBatch(ctx context.Context, updates []inventory.StockUpdate) error
}

type userCache interface {
	Get(ctx context.Context, userID int64) (usercache.Profile, error)
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("ordersvc: no unit of work source configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithCartGateway sets the cart gateway for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCartGateway(gw cartGateway) option {
	return func(s *OrderService) {
		s.cartGateway = gw
	}
}

// WithInventoryGateway sets the inventory gateway for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithInventoryGateway(gw inventoryGateway) option {
	return func(s *OrderService) {
		s.invGateway = gw
	}
}

// WithUserCache sets the user profile cache for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUserCache(cache userCache) option {
	return func(s *OrderService) {
		s.userProfiles = cache
	}
}

// WithUnitOfWorkFactory overrides the unit of work source. Used by tests.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// CreateOrderRequest carries the customer-provided order fields. The items
// and amounts come from the cart snapshot, not from the request.
type CreateOrderRequest struct {
	ShippingAddress string
	CustomerNotes   string
	PaymentMethod   order.PaymentMethod
	DeliveryType    order.DeliveryType
}

// CreateOrder snapshots the user's cart into a new CREATED order, persists
// order, items and the outgoing events in one transaction, then clears the
// cart and decrements stock best-effort.
//
// The cart gateway masks its own failures behind an empty cart, so an order
// created while the gateway was down is persisted with no items and a zero
// total. The log warning is the only trace of that degradation.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	userID int64,
	req CreateOrderRequest,
) (*order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.CreateOrder")
	defer span.End()

	crt := s.cartGateway.GetCart(ctx, userID)
	if len(crt.Items) == 0 {
		slog.Warn("Creating order from empty cart, cart service may be degraded", "user_id", userID)
	}

	now := time.Now()
	o := order.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          order.StatusCreated,
		ShippingAddress: req.ShippingAddress,
		CustomerNotes:   req.CustomerNotes,
		PaymentMethod:   req.PaymentMethod,
		DeliveryType:    req.DeliveryType,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, item := range crt.Items {
		o.Items = append(o.Items, orderitem.OrderItem{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer work.Rollback(ctx)

	if err := work.OrderRepository().Insert(ctx, o); err != nil {
		return nil, err
	}
	if len(o.Items) > 0 {
		if err := work.OrderItemRepository().BulkInsert(ctx, o.Items); err != nil {
			return nil, err
		}
	}

	paymentMsg, err := newOutboxMessage(events.TopicOrderPaymentRequested, o.ID.String(), events.OrderPaymentRequested{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Amount:        o.Total(),
		PaymentMethod: string(o.PaymentMethod),
	})
	if err != nil {
		return nil, err
	}
	if err := work.OutboxRepository().Insert(ctx, paymentMsg); err != nil {
		return nil, err
	}

	orderMsg, err := newOutboxMessage(events.TopicOrderEvents, o.ID.String(), s.newOrderEvent(ctx, &o, "", ""))
	if err != nil {
		return nil, err
	}
	if err := work.OutboxRepository().Insert(ctx, orderMsg); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	slog.Info("Order created", "order_id", o.ID, "user_id", userID, "total", o.Total())

	if err := s.cartGateway.ClearCart(ctx, userID); err != nil {
		slog.Error("Failed to clear cart after order creation", "order_id", o.ID, "error", err)
	}

	if len(o.Items) > 0 {
		updates := make([]inventory.StockUpdate, 0, len(o.Items))
		for _, item := range o.Items {
			updates = append(updates, inventory.StockUpdate{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		if err := s.invGateway.UpdateStockBatch(ctx, updates); err != nil {
			slog.Error("Failed to update stock after order creation", "order_id", o.ID, "error", err)
		}
	}

	return &o, nil
}

// GetOrder retrieves an order with its items, scoped to the requesting user.
func (s *OrderService) GetOrder(
	ctx context.Context,
	orderID uuid.UUID,
	userID int64,
) (*order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.GetOrder")
	defer span.End()

	work := s.newUOW()

	o, err := work.OrderRepository().GetByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	items, err := work.OrderItemRepository().ListByOrderIDs(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

// ListUserOrders retrieves a user's orders with items, optionally filtered
// by status.
func (s *OrderService) ListUserOrders(
	ctx context.Context,
	userID int64,
	status *order.Status,
) ([]order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.ListUserOrders")
	defer span.End()

	work := s.newUOW()

	orders, err := work.OrderRepository().ListByUserID(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	items, err := work.OrderItemRepository().ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[uuid.UUID][]orderitem.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}

	return orders, nil
}

// UpdateOrderStatus sets the order status without transition validation and
// records an order event carrying the previous and new status. It is the
// administrative override used by back-office tooling and payment results.
func (s *OrderService) UpdateOrderStatus(
	ctx context.Context,
	orderID uuid.UUID,
	status order.Status,
) (*order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.UpdateOrderStatus")
	defer span.End()

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer work.Rollback(ctx)

	o, err := work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := work.OrderItemRepository().ListByOrderIDs(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items

	previous := o.Status
	o.Status = status
	o.UpdatedAt = time.Now()

	if err := work.OrderRepository().UpdateStatus(ctx, o.ID, status); err != nil {
		return nil, err
	}

	msg, err := newOutboxMessage(events.TopicOrderEvents, o.ID.String(),
		s.newOrderEvent(ctx, o, string(previous), string(status)))
	if err != nil {
		return nil, err
	}
	if err := work.OutboxRepository().Insert(ctx, msg); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	slog.Info("Order status updated",
		"order_id", o.ID,
		"previous_status", previous,
		"new_status", status)

	return o, nil
}

// UpdateOrderRequest carries the patchable order fields. Nil fields are left
// unchanged.
type UpdateOrderRequest struct {
	ShippingAddress *string
	CustomerNotes   *string
	DeliveryType    *order.DeliveryType
}

// UpdateOrder patches the mutable order fields, scoped to the requesting
// user.
func (s *OrderService) UpdateOrder(
	ctx context.Context,
	orderID uuid.UUID,
	userID int64,
	req UpdateOrderRequest,
) (*order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.UpdateOrder")
	defer span.End()

	work := s.newUOW()

	o, err := work.OrderRepository().GetByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	if req.ShippingAddress != nil {
		o.ShippingAddress = *req.ShippingAddress
	}
	if req.CustomerNotes != nil {
		o.CustomerNotes = *req.CustomerNotes
	}
	if req.DeliveryType != nil {
		o.DeliveryType = *req.DeliveryType
	}
	o.UpdatedAt = time.Now()

	if err := work.OrderRepository().Update(ctx, *o); err != nil {
		return nil, err
	}

	items, err := work.OrderItemRepository().ListByOrderIDs(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

// CancelOrder cancels an order that is still in CREATED status and returns
// its stock best-effort. Any other status fails with ErrOrderCancellation.
// Cancellation after payment is a manual back-office procedure.
func (s *OrderService) CancelOrder(
	ctx context.Context,
	orderID uuid.UUID,
	userID int64,
) error {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.CancelOrder")
	defer span.End()

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return err
	}
	defer work.Rollback(ctx)

	o, err := work.OrderRepository().GetByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		return err
	}
	if o.Status != order.StatusCreated {
		return order.ErrOrderCancellation
	}

	items, err := work.OrderItemRepository().ListByOrderIDs(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return err
	}
	o.Items = items

	previous := o.Status
	o.Status = order.StatusCancelled
	o.UpdatedAt = time.Now()

	if err := work.OrderRepository().UpdateStatus(ctx, o.ID, order.StatusCancelled); err != nil {
		return err
	}

	msg, err := newOutboxMessage(events.TopicOrderEvents, o.ID.String(),
		s.newOrderEvent(ctx, o, string(previous), string(order.StatusCancelled)))
	if err != nil {
		return err
	}
	if err := work.OutboxRepository().Insert(ctx, msg); err != nil {
		return err
	}

	if err := work.Commit(ctx); err != nil {
		return err
	}

	slog.Info("Order cancelled", "order_id", o.ID, "user_id", userID)

	if len(o.Items) > 0 {
		updates := make([]inventory.StockUpdate, 0, len(o.Items))
		for _, item := range o.Items {
			updates = append(updates, inventory.StockUpdate{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		if err := s.invGateway.ReturnStockBatch(ctx, updates); err != nil {
			slog.Error("Failed to return stock after cancellation", "order_id", o.ID, "error", err)
		}
	}

	return nil
}

// newOrderEvent builds the order event payload, enriching it with the cached
// user profile when one is available.
func (s *OrderService) newOrderEvent(
	ctx context.Context,
	o *order.Order,
	previousStatus string,
	newStatus string,
) events.OrderEvent {
	evt := events.OrderEvent{
		OrderID:        o.ID,
		UserID:         o.UserID,
		OrderNumber:    o.ID.String(),
		OrderStatus:    string(o.Status),
		TotalAmount:    o.Total(),
		OrderDate:      o.CreatedAt,
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
	}

	if s.userProfiles != nil {
		profile, err := s.userProfiles.Get(ctx, o.UserID)
		if err != nil {
			slog.Warn("User profile not cached, emitting order event without recipient",
				"user_id", o.UserID, "error", err)
		} else {
			evt.UserEmail = profile.Email
			evt.UserName = profile.FullName
		}
	}

	return evt
}

func newOutboxMessage(topic, partitionKey string, payload any) (outbox.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return outbox.Message{}, fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}

	now := time.Now()

	return outbox.Message{
		Topic:        topic,
		PartitionKey: partitionKey,
		Payload:      body,
		ContentType:  "application/json",
		MaxRetries:   outboxMaxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	}, nil
}
