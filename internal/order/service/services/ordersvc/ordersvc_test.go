package ordersvc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/events"
	"github.com/marketly/fulfillment/internal/order/dal/interfaces/iorderitemrepo"
	"github.com/marketly/fulfillment/internal/order/dal/interfaces/iorderrepo"
	"github.com/marketly/fulfillment/internal/order/dal/interfaces/ioutboxrepo"
	"github.com/marketly/fulfillment/internal/order/gateway/cart"
	"github.com/marketly/fulfillment/internal/order/gateway/inventory"
	"github.com/marketly/fulfillment/internal/order/service/models/order"
	"github.com/marketly/fulfillment/internal/order/service/models/orderitem"
	"github.com/marketly/fulfillment/internal/order/service/models/outbox"
	"github.com/marketly/fulfillment/internal/order/usercache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	orders   map[uuid.UUID]order.Order
	items    map[uuid.UUID][]orderitem.OrderItem
	outbox   []outbox.Message
	commits  int
	rollback int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders: make(map[uuid.UUID]order.Order),
		items:  make(map[uuid.UUID][]orderitem.OrderItem),
	}
}

type fakeUOW struct {
	store *fakeStore
}

func (u *fakeUOW) Begin(ctx context.Context) error    { return nil }
func (u *fakeUOW) Commit(ctx context.Context) error   { u.store.commits++; return nil }
func (u *fakeUOW) Rollback(ctx context.Context) error { u.store.rollback++; return nil }

func (u *fakeUOW) OrderRepository() iorderrepo.IOrderRepository {
	return &fakeOrderRepo{store: u.store}
}

func (u *fakeUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return &fakeOrderItemRepo{store: u.store}
}

func (u *fakeUOW) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return &fakeOutboxRepo{store: u.store}
}

type fakeOrderRepo struct {
	store *fakeStore
}

func (r *fakeOrderRepo) Insert(_ context.Context, o order.Order) error {
	r.store.orders[o.ID] = o

	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.store.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}

	return &o, nil
}

func (r *fakeOrderRepo) GetByIDAndUserID(_ context.Context, id uuid.UUID, userID int64) (*order.Order, error) {
	o, ok := r.store.orders[id]
	if !ok || o.UserID != userID {
		return nil, order.ErrOrderNotFound
	}

	return &o, nil
}

func (r *fakeOrderRepo) ListByUserID(_ context.Context, userID int64, status *order.Status) ([]order.Order, error) {
	var result []order.Order
	for _, o := range r.store.orders {
		if o.UserID != userID {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		result = append(result, o)
	}

	return result, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status order.Status) error {
	o, ok := r.store.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Status = status
	r.store.orders[id] = o

	return nil
}

func (r *fakeOrderRepo) Update(_ context.Context, o order.Order) error {
	if _, ok := r.store.orders[o.ID]; !ok {
		return order.ErrOrderNotFound
	}
	r.store.orders[o.ID] = o

	return nil
}

type fakeOrderItemRepo struct {
	store *fakeStore
}

func (r *fakeOrderItemRepo) BulkInsert(_ context.Context, items []orderitem.OrderItem) error {
	for _, item := range items {
		r.store.items[item.OrderID] = append(r.store.items[item.OrderID], item)
	}

	return nil
}

func (r *fakeOrderItemRepo) ListByOrderIDs(_ context.Context, orderIDs []uuid.UUID) ([]orderitem.OrderItem, error) {
	var result []orderitem.OrderItem
	for _, id := range orderIDs {
		result = append(result, r.store.items[id]...)
	}

	return result, nil
}

type fakeOutboxRepo struct {
	store *fakeStore
}

func (r *fakeOutboxRepo) Insert(_ context.Context, msg outbox.Message) error {
	msg.ID = int64(len(r.store.outbox) + 1)
	r.store.outbox = append(r.store.outbox, msg)

	return nil
}

func (r *fakeOutboxRepo) GetPendingMessages(_ context.Context, limit int) ([]outbox.Message, error) {
	if len(r.store.outbox) > limit {
		return r.store.outbox[:limit], nil
	}

	return r.store.outbox, nil
}

func (r *fakeOutboxRepo) Delete(_ context.Context, id int64) error {
	for i, msg := range r.store.outbox {
		if msg.ID == id {
			r.store.outbox = append(r.store.outbox[:i], r.store.outbox[i+1:]...)

			return nil
		}
	}

	return nil
}

func (r *fakeOutboxRepo) UpdateRetry(_ context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error {
	for i := range r.store.outbox {
		if r.store.outbox[i].ID == id {
			r.store.outbox[i].RetryCount = retryCount
			r.store.outbox[i].LastError = lastError
			r.store.outbox[i].NextRetryAt = nextRetryAt
		}
	}

	return nil
}

type fakeCartGateway struct {
	carts      map[int64]cart.Cart
	cleared    []int64
	clearError error
}

func (g *fakeCartGateway) GetCart(_ context.Context, userID int64) cart.Cart {
	if crt, ok := g.carts[userID]; ok {
		return crt
	}

	return cart.Cart{UserID: userID, Items: []cart.Item{}, Total: decimal.Zero}
}

func (g *fakeCartGateway) ClearCart(_ context.Context, userID int64) error {
	if g.clearError != nil {
		return g.clearError
	}
	g.cleared = append(g.cleared, userID)

	return nil
}

type fakeInventoryGateway struct {
	updated  [][]inventory.StockUpdate
	returned [][]inventory.StockUpdate
	err      error
}

func (g *fakeInventoryGateway) UpdateStockBatch(_ context.Context, updates []inventory.StockUpdate) error {
	if g.err != nil {
		return g.err
	}
	g.updated = append(g.updated, updates)

	return nil
}

func (g *fakeInventoryGateway) ReturnStockBatch(_ context.Context, updates []inventory.StockUpdate) error {
	if g.err != nil {
		return g.err
	}
	g.returned = append(g.returned, updates)

	return nil
}

type fakeUserCache struct {
	profiles map[int64]usercache.Profile
}

func (c *fakeUserCache) Get(_ context.Context, userID int64) (usercache.Profile, error) {
	p, ok := c.profiles[userID]
	if !ok {
		return usercache.Profile{}, usercache.ErrProfileNotFound
	}

	return p, nil
}

func newTestService(store *fakeStore, cartGw *fakeCartGateway, invGw *fakeInventoryGateway) *OrderService {
	return MustNewOrderService(
		WithUnitOfWorkFactory(func() unitOfWork { return &fakeUOW{store: store} }),
		WithCartGateway(cartGw),
		WithInventoryGateway(invGw),
		WithUserCache(&fakeUserCache{profiles: map[int64]usercache.Profile{
			42: {Email: "jane@example.com", FullName: "Jane Doe", Active: true},
		}}),
	)
}

func twoItemCart() cart.Cart {
	return cart.Cart{
		UserID: 42,
		Items: []cart.Item{
			{ProductID: uuid.New(), Name: "Keyboard", Price: decimal.RequireFromString("10.00"), Quantity: 2},
			{ProductID: uuid.New(), Name: "Mouse", Price: decimal.RequireFromString("5.00"), Quantity: 1},
		},
		Total: decimal.RequireFromString("25.00"),
	}
}

func TestCreateOrderSnapshotsCart(t *testing.T) {
	store := newFakeStore()
	cartGw := &fakeCartGateway{carts: map[int64]cart.Cart{42: twoItemCart()}}
	invGw := &fakeInventoryGateway{}
	svc := newTestService(store, cartGw, invGw)

	o, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "1 Main St",
		PaymentMethod:   order.PaymentMethodCard,
		DeliveryType:    order.DeliveryTypeCourier,
	})

	require.NoError(t, err)
	assert.Equal(t, order.StatusCreated, o.Status)
	assert.Len(t, o.Items, 2)
	assert.True(t, o.Total().Equal(decimal.RequireFromString("25.00")),
		"total must be recomputed from the snapshotted items")

	stored := store.orders[o.ID]
	assert.Equal(t, int64(42), stored.UserID)
	assert.Len(t, store.items[o.ID], 2)
	assert.Equal(t, 1, store.commits)
}

func TestCreateOrderWritesBothOutboxMessages(t *testing.T) {
	store := newFakeStore()
	cartGw := &fakeCartGateway{carts: map[int64]cart.Cart{42: twoItemCart()}}
	svc := newTestService(store, cartGw, &fakeInventoryGateway{})

	o, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "1 Main St",
		PaymentMethod:   order.PaymentMethodCard,
		DeliveryType:    order.DeliveryTypeCourier,
	})
	require.NoError(t, err)

	require.Len(t, store.outbox, 2)

	byTopic := map[string]outbox.Message{}
	for _, msg := range store.outbox {
		byTopic[msg.Topic] = msg
	}

	paymentMsg, ok := byTopic[events.TopicOrderPaymentRequested]
	require.True(t, ok)
	assert.Equal(t, o.ID.String(), paymentMsg.PartitionKey)

	var paymentEvt events.OrderPaymentRequested
	require.NoError(t, json.Unmarshal(paymentMsg.Payload, &paymentEvt))
	assert.Equal(t, o.ID, paymentEvt.OrderID)
	assert.True(t, paymentEvt.Amount.Equal(decimal.RequireFromString("25.00")))

	orderMsg, ok := byTopic[events.TopicOrderEvents]
	require.True(t, ok)

	var orderEvt events.OrderEvent
	require.NoError(t, json.Unmarshal(orderMsg.Payload, &orderEvt))
	assert.Equal(t, "jane@example.com", orderEvt.UserEmail)
	assert.Empty(t, orderEvt.PreviousStatus)
	assert.Empty(t, orderEvt.NewStatus)
}

func TestCreateOrderProceedsWithEmptyCart(t *testing.T) {
	store := newFakeStore()
	cartGw := &fakeCartGateway{carts: map[int64]cart.Cart{}}
	svc := newTestService(store, cartGw, &fakeInventoryGateway{})

	o, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "1 Main St",
		PaymentMethod:   order.PaymentMethodCard,
		DeliveryType:    order.DeliveryTypeCourier,
	})

	require.NoError(t, err, "a degraded cart gateway still yields an order")
	assert.Empty(t, o.Items)
	assert.True(t, o.Total().IsZero())
	assert.Len(t, store.outbox, 2)
}

func TestCreateOrderSurvivesInventoryFailure(t *testing.T) {
	store := newFakeStore()
	cartGw := &fakeCartGateway{carts: map[int64]cart.Cart{42: twoItemCart()}}
	invGw := &fakeInventoryGateway{err: errors.New("inventory down")}
	svc := newTestService(store, cartGw, invGw)

	o, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "1 Main St",
		PaymentMethod:   order.PaymentMethodCard,
		DeliveryType:    order.DeliveryTypeCourier,
	})

	require.NoError(t, err, "stock decrement is best-effort")
	assert.Contains(t, store.orders, o.ID)
}

func TestCreateOrderClearsCart(t *testing.T) {
	store := newFakeStore()
	cartGw := &fakeCartGateway{carts: map[int64]cart.Cart{42: twoItemCart()}}
	invGw := &fakeInventoryGateway{}
	svc := newTestService(store, cartGw, invGw)

	_, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "1 Main St",
		PaymentMethod:   order.PaymentMethodCard,
		DeliveryType:    order.DeliveryTypeCourier,
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{42}, cartGw.cleared)
	require.Len(t, invGw.updated, 1)
	assert.Len(t, invGw.updated[0], 2)
}

func TestCancelOrderOnlyFromCreated(t *testing.T) {
	store := newFakeStore()
	cartGw := &fakeCartGateway{carts: map[int64]cart.Cart{42: twoItemCart()}}
	invGw := &fakeInventoryGateway{}
	svc := newTestService(store, cartGw, invGw)

	o, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "1 Main St",
		PaymentMethod:   order.PaymentMethodCard,
		DeliveryType:    order.DeliveryTypeCourier,
	})
	require.NoError(t, err)

	require.NoError(t, svc.CancelOrder(context.Background(), o.ID, 42))
	assert.Equal(t, order.StatusCancelled, store.orders[o.ID].Status)
	require.Len(t, invGw.returned, 1, "cancellation returns the snapshotted stock")

	err = svc.CancelOrder(context.Background(), o.ID, 42)
	assert.ErrorIs(t, err, order.ErrOrderCancellation)
}

func TestCancelOrderScopedToOwner(t *testing.T) {
	store := newFakeStore()
	cartGw := &fakeCartGateway{carts: map[int64]cart.Cart{42: twoItemCart()}}
	svc := newTestService(store, cartGw, &fakeInventoryGateway{})

	o, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "1 Main St",
		PaymentMethod:   order.PaymentMethodCard,
		DeliveryType:    order.DeliveryTypeCourier,
	})
	require.NoError(t, err)

	err = svc.CancelOrder(context.Background(), o.ID, 99)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestUpdateOrderStatusRecordsTransition(t *testing.T) {
	store := newFakeStore()
	cartGw := &fakeCartGateway{carts: map[int64]cart.Cart{42: twoItemCart()}}
	svc := newTestService(store, cartGw, &fakeInventoryGateway{})

	o, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "1 Main St",
		PaymentMethod:   order.PaymentMethodCard,
		DeliveryType:    order.DeliveryTypeCourier,
	})
	require.NoError(t, err)
	outboxBefore := len(store.outbox)

	updated, err := svc.UpdateOrderStatus(context.Background(), o.ID, order.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, updated.Status)
	assert.Equal(t, order.StatusShipped, store.orders[o.ID].Status)

	require.Len(t, store.outbox, outboxBefore+1)
	var evt events.OrderEvent
	require.NoError(t, json.Unmarshal(store.outbox[len(store.outbox)-1].Payload, &evt))
	assert.Equal(t, string(order.StatusCreated), evt.PreviousStatus)
	assert.Equal(t, string(order.StatusShipped), evt.NewStatus)
}

func TestUpdateOrderStatusAllowsAnyTransition(t *testing.T) {
	store := newFakeStore()
	cartGw := &fakeCartGateway{carts: map[int64]cart.Cart{42: twoItemCart()}}
	svc := newTestService(store, cartGw, &fakeInventoryGateway{})

	o, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "1 Main St",
		PaymentMethod:   order.PaymentMethodCard,
		DeliveryType:    order.DeliveryTypeCourier,
	})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(context.Background(), o.ID, order.StatusDelivered)
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(context.Background(), o.ID, order.StatusCreated)
	require.NoError(t, err, "the override validates nothing beyond the status value itself")
}

func TestGetOrderScopedToOwner(t *testing.T) {
	store := newFakeStore()
	cartGw := &fakeCartGateway{carts: map[int64]cart.Cart{42: twoItemCart()}}
	svc := newTestService(store, cartGw, &fakeInventoryGateway{})

	o, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "1 Main St",
		PaymentMethod:   order.PaymentMethodCard,
		DeliveryType:    order.DeliveryTypeCourier,
	})
	require.NoError(t, err)

	got, err := svc.GetOrder(context.Background(), o.ID, 42)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	_, err = svc.GetOrder(context.Background(), o.ID, 99)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestListUserOrdersFiltersByStatus(t *testing.T) {
	store := newFakeStore()
	cartGw := &fakeCartGateway{carts: map[int64]cart.Cart{42: twoItemCart()}}
	svc := newTestService(store, cartGw, &fakeInventoryGateway{})

	first, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "1 Main St",
		PaymentMethod:   order.PaymentMethodCard,
		DeliveryType:    order.DeliveryTypeCourier,
	})
	require.NoError(t, err)

	cartGw.carts[42] = twoItemCart()
	_, err = svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "2 Main St",
		PaymentMethod:   order.PaymentMethodPaypal,
		DeliveryType:    order.DeliveryTypePickup,
	})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(context.Background(), first.ID, order.StatusPaid)
	require.NoError(t, err)

	all, err := svc.ListUserOrders(context.Background(), 42, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	paid := order.StatusPaid
	filtered, err := svc.ListUserOrders(context.Background(), 42, &paid)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)
}

func TestUpdateOrderPatchesFields(t *testing.T) {
	store := newFakeStore()
	cartGw := &fakeCartGateway{carts: map[int64]cart.Cart{42: twoItemCart()}}
	svc := newTestService(store, cartGw, &fakeInventoryGateway{})

	o, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		ShippingAddress: "1 Main St",
		CustomerNotes:   "leave at door",
		PaymentMethod:   order.PaymentMethodCard,
		DeliveryType:    order.DeliveryTypeCourier,
	})
	require.NoError(t, err)

	newAddr := "9 Side St"
	pickup := order.DeliveryTypePickup
	updated, err := svc.UpdateOrder(context.Background(), o.ID, 42, UpdateOrderRequest{
		ShippingAddress: &newAddr,
		DeliveryType:    &pickup,
	})

	require.NoError(t, err)
	assert.Equal(t, "9 Side St", updated.ShippingAddress)
	assert.Equal(t, "leave at door", updated.CustomerNotes, "absent fields stay unchanged")
	assert.Equal(t, order.DeliveryTypePickup, updated.DeliveryType)
}
