package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketly/fulfillment/internal/payment/service/models/payment"
	"github.com/marketly/fulfillment/internal/pkg/postgres"
)

var paymentColumns = []string{
	"id",
	"order_id",
	"user_id",
	"amount",
	"payment_method",
	"status",
	"created_at",
	"updated_at",
}

// PaymentRepository implements the payment repository for PostgreSQL.
type PaymentRepository struct {
	conn postgres.Querier
}

// NewPaymentRepository creates a new payment repository.
func NewPaymentRepository(conn postgres.Querier) *PaymentRepository {
	return &PaymentRepository{
		conn: conn,
	}
}

// Insert adds a new payment row.
func (r *PaymentRepository) Insert(ctx context.Context, p payment.Payment) error {
	query, args, err := sq.Insert("payments").
		Columns(paymentColumns...).
		Values(
			p.ID,
			p.OrderID,
			p.UserID,
			p.Amount,
			p.PaymentMethod,
			string(p.Status),
			p.CreatedAt,
			p.UpdatedAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by id.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query, args, err := sq.Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	p, err := scanPayment(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}

		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return p, nil
}

// List retrieves all payments, newest first.
func (r *PaymentRepository) List(ctx context.Context) ([]payment.Payment, error) {
	return r.list(ctx, nil)
}

// ListByUserID retrieves a user's payments, newest first.
func (r *PaymentRepository) ListByUserID(ctx context.Context, userID int64) ([]payment.Payment, error) {
	return r.list(ctx, sq.Eq{"user_id": userID})
}

func (r *PaymentRepository) list(ctx context.Context, where sq.Eq) ([]payment.Payment, error) {
	builder := sq.Select(paymentColumns...).
		From("payments").
		OrderBy("created_at DESC")

	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]payment.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}

	return payments, rows.Err()
}

// UpdateStatus sets the status of a payment.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status payment.Status) error {
	query, args, err := sq.Update("payments").
		Set("status", string(status)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrPaymentNotFound
	}

	return nil
}

type row interface {
	Scan(dest ...any) error
}

func scanPayment(r row) (*payment.Payment, error) {
	var p payment.Payment
	var status string

	err := r.Scan(
		&p.ID,
		&p.OrderID,
		&p.UserID,
		&p.Amount,
		&p.PaymentMethod,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = payment.Status(status)

	return &p, nil
}
