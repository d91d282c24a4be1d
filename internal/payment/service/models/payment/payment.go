package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrPaymentNotFound reports that no payment matched the id.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrPaymentNotRetryable reports a retry attempt on a payment that is
	// not in FAILED status.
	ErrPaymentNotRetryable = errors.New("only failed payments can be retried")
)

// Status is the lifecycle status of a payment record.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus parses a payment status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return Status(s), nil
	}

	return "", fmt.Errorf("unknown payment status: %q", s)
}

// Payment is one payment record in the ledger. Records are append-oriented:
// a redelivered payment request or a retry opens a new row rather than
// mutating the old one, so the ledger can hold several rows per order.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"orderId"`
	UserID        int64           `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
