package uow

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marketly/fulfillment/internal/order/dal/interfaces/iorderitemrepo"
	"github.com/marketly/fulfillment/internal/order/dal/interfaces/iorderrepo"
	"github.com/marketly/fulfillment/internal/order/dal/interfaces/ioutboxrepo"
	orderrepo "github.com/marketly/fulfillment/internal/order/dal/repositories/order/postgres"
	orderitemrepo "github.com/marketly/fulfillment/internal/order/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/marketly/fulfillment/internal/order/dal/repositories/outbox/postgres"
	"github.com/marketly/fulfillment/internal/pkg/postgres"
)

// UnitOfWork scopes the order, order item and outbox repositories to a
// single transaction, so an order, its items and its outgoing events commit
// or roll back together.
type UnitOfWork struct {
	pool          *pgxpool.Pool
	tx            pgx.Tx
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	pool := client.Pool()

	return &UnitOfWork{
		pool:          pool,
		orderRepo:     orderrepo.NewOrderRepository(pool),
		orderItemRepo: orderitemrepo.NewOrderItemRepository(pool),
		outboxRepo:    outboxrepo.NewOutboxRepository(pool),
	}
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *UnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.orderRepo = orderrepo.NewOrderRepository(tx)
	u.orderItemRepo = orderitemrepo.NewOrderItemRepository(tx)
	u.outboxRepo = outboxrepo.NewOutboxRepository(tx)

	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit(ctx)
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Rollback(ctx)
}
