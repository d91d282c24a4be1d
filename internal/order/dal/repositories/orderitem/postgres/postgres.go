package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/order/service/models/orderitem"
	"github.com/marketly/fulfillment/internal/pkg/postgres"
)

// OrderItemRepository implements the order item repository for PostgreSQL.
type OrderItemRepository struct {
	conn postgres.Querier
}

// NewOrderItemRepository creates a new order item repository.
func NewOrderItemRepository(conn postgres.Querier) *OrderItemRepository {
	return &OrderItemRepository{
		conn: conn,
	}
}

// BulkInsert adds the items of an order in a single statement.
func (r *OrderItemRepository) BulkInsert(ctx context.Context, items []orderitem.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	builder := sq.Insert("order_items").
		Columns("id", "order_id", "product_id", "name", "price", "quantity")

	for _, item := range items {
		builder = builder.Values(
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.Price,
			item.Quantity,
		)
	}

	query, args, err := builder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to bulk insert order items: %w", err)
	}

	return nil
}

// ListByOrderIDs retrieves the items of the given orders.
func (r *OrderItemRepository) ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]orderitem.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	query, args, err := sq.Select("id", "order_id", "product_id", "name", "price", "quantity").
		From("order_items").
		Where(sq.Eq{"order_id": orderIDs}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		var item orderitem.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Price,
			&item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
