package ipaymentrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/payment/service/models/payment"
)

// IPaymentRepository defines the interface for payment persistence.
type IPaymentRepository interface {
	// Insert adds a new payment row.
	Insert(ctx context.Context, p payment.Payment) error

	// GetByID retrieves a payment by id.
	GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error)

	// List retrieves all payments, newest first.
	List(ctx context.Context) ([]payment.Payment, error)

	// ListByUserID retrieves a user's payments, newest first.
	ListByUserID(ctx context.Context, userID int64) ([]payment.Payment, error)

	// UpdateStatus sets the status of a payment.
	UpdateStatus(ctx context.Context, id uuid.UUID, status payment.Status) error
}
