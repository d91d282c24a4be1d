package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketly/fulfillment/internal/order/service/models/order"
	"github.com/marketly/fulfillment/internal/pkg/postgres"
)

var orderColumns = []string{
	"id",
	"user_id",
	"status",
	"shipping_address",
	"customer_notes",
	"payment_method",
	"delivery_type",
	"created_at",
	"updated_at",
}

// OrderRepository implements the order repository for PostgreSQL.
type OrderRepository struct {
	conn postgres.Querier
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(conn postgres.Querier) *OrderRepository {
	return &OrderRepository{
		conn: conn,
	}
}

// Insert adds a new order row.
func (r *OrderRepository) Insert(ctx context.Context, o order.Order) error {
	query, args, err := sq.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID,
			o.UserID,
			string(o.Status),
			o.ShippingAddress,
			o.CustomerNotes,
			string(o.PaymentMethod),
			string(o.DeliveryType),
			o.CreatedAt,
			o.UpdatedAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// GetByID retrieves an order without an ownership check.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetByIDAndUserID retrieves an order scoped to the requesting user.
func (r *OrderRepository) GetByIDAndUserID(ctx context.Context, id uuid.UUID, userID int64) (*order.Order, error) {
	return r.getOne(ctx, sq.Eq{"id": id, "user_id": userID})
}

func (r *OrderRepository) getOne(ctx context.Context, where sq.Eq) (*order.Order, error) {
	query, args, err := sq.Select(orderColumns...).
		From("orders").
		Where(where).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	o, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}

		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return o, nil
}

// ListByUserID retrieves a user's orders, optionally filtered by status,
// newest first.
func (r *OrderRepository) ListByUserID(ctx context.Context, userID int64, status *order.Status) ([]order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")

	if status != nil {
		builder = builder.Where(sq.Eq{"status": string(*status)})
	}

	query, args, err := builder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// UpdateStatus sets the status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	query, args, err := sq.Update("orders").
		Set("status", string(status)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrOrderNotFound
	}

	return nil
}

// Update persists the mutable order fields.
func (r *OrderRepository) Update(ctx context.Context, o order.Order) error {
	query, args, err := sq.Update("orders").
		Set("shipping_address", o.ShippingAddress).
		Set("customer_notes", o.CustomerNotes).
		Set("delivery_type", string(o.DeliveryType)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": o.ID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrOrderNotFound
	}

	return nil
}

type row interface {
	Scan(dest ...any) error
}

func scanOrder(r row) (*order.Order, error) {
	var (
		o             order.Order
		status        string
		paymentMethod string
		deliveryType  string
	)

	err := r.Scan(
		&o.ID,
		&o.UserID,
		&status,
		&o.ShippingAddress,
		&o.CustomerNotes,
		&paymentMethod,
		&deliveryType,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Status = order.Status(status)
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	o.DeliveryType = order.DeliveryType(deliveryType)

	return &o, nil
}
