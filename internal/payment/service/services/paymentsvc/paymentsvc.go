package paymentsvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/events"
	"github.com/marketly/fulfillment/internal/payment/dal/interfaces/ipaymentrepo"
	"github.com/marketly/fulfillment/internal/payment/service/models/payment"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

// PaymentService owns the payment ledger. It records payment requests from
// the bus and serves the back-office payment operations.
//
// The ledger is not idempotent over the bus: a redelivered payment request
// opens a second PENDING row for the same order. Reconciliation of such rows
// is a back-office concern.
type PaymentService struct {
	paymentRepo ipaymentrepo.IPaymentRepository
}

// option is a function that configures the PaymentService.
type option func(*PaymentService)

// MustNewPaymentService creates a new PaymentService.
func MustNewPaymentService(opts ...option) *PaymentService {
	s := &PaymentService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.paymentRepo == nil {
		panic("paymentsvc: no payment repository configured")
	}

	return s
}

// WithPaymentRepository sets the payment repository for the PaymentService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPaymentRepository(repo ipaymentrepo.IPaymentRepository) option {
	return func(s *PaymentService) {
		s.paymentRepo = repo
	}
}

// CreatePaymentRequest carries the fields of a manually created payment.
type CreatePaymentRequest struct {
	OrderID       uuid.UUID
	UserID        int64
	Amount        decimal.Decimal
	PaymentMethod string
}

// CreatePayment records a payment row in PENDING status.
func (s *PaymentService) CreatePayment(
	ctx context.Context,
	req CreatePaymentRequest,
) (*payment.Payment, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.CreatePayment")
	defer span.End()

	now := time.Now()
	p := payment.Payment{
		ID:            uuid.New(),
		OrderID:       req.OrderID,
		UserID:        req.UserID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        payment.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.paymentRepo.Insert(ctx, p); err != nil {
		return nil, err
	}

	slog.Info("Payment created", "payment_id", p.ID, "order_id", p.OrderID, "amount", p.Amount)

	return &p, nil
}

// ProcessPaymentRequested records a payment request read from the bus. No
// lookup by order id is performed first, so each delivery of the same event
// produces its own row.
func (s *PaymentService) ProcessPaymentRequested(
	ctx context.Context,
	evt events.OrderPaymentRequested,
) error {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.ProcessPaymentRequested")
	defer span.End()

	slog.Info("Processing payment request",
		"order_id", evt.OrderID,
		"user_id", evt.UserID,
		"amount", evt.Amount)

	_, err := s.CreatePayment(ctx, CreatePaymentRequest{
		OrderID:       evt.OrderID,
		UserID:        evt.UserID,
		Amount:        evt.Amount,
		PaymentMethod: evt.PaymentMethod,
	})

	return err
}

// GetPayment retrieves a payment by id.
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return s.paymentRepo.GetByID(ctx, id)
}

// ListPayments retrieves all payments.
func (s *PaymentService) ListPayments(ctx context.Context) ([]payment.Payment, error) {
	return s.paymentRepo.List(ctx)
}

// ListUserPayments retrieves a user's payments.
func (s *PaymentService) ListUserPayments(ctx context.Context, userID int64) ([]payment.Payment, error) {
	return s.paymentRepo.ListByUserID(ctx, userID)
}

// CancelPayment marks a payment CANCELLED regardless of its current status.
func (s *PaymentService) CancelPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.CancelPayment")
	defer span.End()

	p, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.paymentRepo.UpdateStatus(ctx, p.ID, payment.StatusCancelled); err != nil {
		return nil, err
	}
	p.Status = payment.StatusCancelled

	slog.Info("Payment cancelled", "payment_id", p.ID, "order_id", p.OrderID)

	return p, nil
}

// RetryPayment opens a fresh attempt for a FAILED payment. The original row
// is left untouched and the new row is marked COMPLETED right away; there is
// no payment gateway behind the ledger yet, so a retried attempt is assumed
// to succeed.
func (s *PaymentService) RetryPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "Service.RetryPayment")
	defer span.End()

	original, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if original.Status != payment.StatusFailed {
		return nil, payment.ErrPaymentNotRetryable
	}

	now := time.Now()
	retry := payment.Payment{
		ID:            uuid.New(),
		OrderID:       original.OrderID,
		UserID:        original.UserID,
		Amount:        original.Amount,
		PaymentMethod: original.PaymentMethod,
		Status:        payment.StatusCompleted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.paymentRepo.Insert(ctx, retry); err != nil {
		return nil, err
	}

	slog.Info("Payment retried",
		"original_payment_id", original.ID,
		"payment_id", retry.ID,
		"order_id", retry.OrderID)

	return &retry, nil
}
