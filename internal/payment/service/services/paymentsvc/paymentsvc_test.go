package paymentsvc

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/events"
	"github.com/marketly/fulfillment/internal/payment/service/models/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentRepo struct {
	payments map[uuid.UUID]payment.Payment
	inserted []payment.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]payment.Payment)}
}

func (r *fakePaymentRepo) Insert(_ context.Context, p payment.Payment) error {
	r.payments[p.ID] = p
	r.inserted = append(r.inserted, p)

	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}

	return &p, nil
}

func (r *fakePaymentRepo) List(_ context.Context) ([]payment.Payment, error) {
	result := make([]payment.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		result = append(result, p)
	}

	return result, nil
}

func (r *fakePaymentRepo) ListByUserID(_ context.Context, userID int64) ([]payment.Payment, error) {
	var result []payment.Payment
	for _, p := range r.payments {
		if p.UserID == userID {
			result = append(result, p)
		}
	}

	return result, nil
}

func (r *fakePaymentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status payment.Status) error {
	p, ok := r.payments[id]
	if !ok {
		return payment.ErrPaymentNotFound
	}
	p.Status = status
	r.payments[id] = p

	return nil
}

func paymentRequested(orderID uuid.UUID) events.OrderPaymentRequested {
	return events.OrderPaymentRequested{
		OrderID:       orderID,
		UserID:        42,
		Amount:        decimal.RequireFromString("25.00"),
		PaymentMethod: "CARD",
	}
}

func TestProcessPaymentRequestedOpensPendingRow(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := MustNewPaymentService(WithPaymentRepository(repo))

	orderID := uuid.New()
	require.NoError(t, svc.ProcessPaymentRequested(context.Background(), paymentRequested(orderID)))

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, payment.StatusPending, repo.inserted[0].Status)
	assert.Equal(t, orderID, repo.inserted[0].OrderID)
	assert.True(t, repo.inserted[0].Amount.Equal(decimal.RequireFromString("25.00")))
}

func TestRedeliveredRequestOpensSecondRow(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := MustNewPaymentService(WithPaymentRepository(repo))

	orderID := uuid.New()
	evt := paymentRequested(orderID)
	require.NoError(t, svc.ProcessPaymentRequested(context.Background(), evt))
	require.NoError(t, svc.ProcessPaymentRequested(context.Background(), evt))

	require.Len(t, repo.inserted, 2, "redelivery is not deduplicated, each delivery opens a row")
	assert.Equal(t, repo.inserted[0].OrderID, repo.inserted[1].OrderID)
	assert.NotEqual(t, repo.inserted[0].ID, repo.inserted[1].ID)
}

func TestRetryPaymentRequiresFailedStatus(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := MustNewPaymentService(WithPaymentRepository(repo))

	p, err := svc.CreatePayment(context.Background(), CreatePaymentRequest{
		OrderID:       uuid.New(),
		UserID:        42,
		Amount:        decimal.RequireFromString("10.00"),
		PaymentMethod: "CARD",
	})
	require.NoError(t, err)

	_, err = svc.RetryPayment(context.Background(), p.ID)
	assert.ErrorIs(t, err, payment.ErrPaymentNotRetryable)
	assert.Len(t, repo.inserted, 1, "a rejected retry must not open a row")
}

func TestRetryPaymentOpensCompletedRow(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := MustNewPaymentService(WithPaymentRepository(repo))

	p, err := svc.CreatePayment(context.Background(), CreatePaymentRequest{
		OrderID:       uuid.New(),
		UserID:        42,
		Amount:        decimal.RequireFromString("10.00"),
		PaymentMethod: "CARD",
	})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(context.Background(), p.ID, payment.StatusFailed))

	retried, err := svc.RetryPayment(context.Background(), p.ID)
	require.NoError(t, err)

	assert.NotEqual(t, p.ID, retried.ID, "retry opens a fresh row")
	assert.Equal(t, payment.StatusCompleted, retried.Status)
	assert.Equal(t, p.OrderID, retried.OrderID)
	assert.True(t, retried.Amount.Equal(p.Amount))

	original, err := svc.GetPayment(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, original.Status, "the original row is untouched")
}

func TestCancelPaymentIsUnconditional(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := MustNewPaymentService(WithPaymentRepository(repo))

	p, err := svc.CreatePayment(context.Background(), CreatePaymentRequest{
		OrderID:       uuid.New(),
		UserID:        42,
		Amount:        decimal.RequireFromString("10.00"),
		PaymentMethod: "CARD",
	})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(context.Background(), p.ID, payment.StatusCompleted))

	cancelled, err := svc.CancelPayment(context.Background(), p.ID)
	require.NoError(t, err, "cancellation applies regardless of current status")
	assert.Equal(t, payment.StatusCancelled, cancelled.Status)
}

func TestCancelPaymentUnknownID(t *testing.T) {
	svc := MustNewPaymentService(WithPaymentRepository(newFakePaymentRepo()))

	_, err := svc.CancelPayment(context.Background(), uuid.New())
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
}

func TestListUserPayments(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := MustNewPaymentService(WithPaymentRepository(repo))

	_, err := svc.CreatePayment(context.Background(), CreatePaymentRequest{
		OrderID: uuid.New(), UserID: 42, Amount: decimal.NewFromInt(10), PaymentMethod: "CARD",
	})
	require.NoError(t, err)
	_, err = svc.CreatePayment(context.Background(), CreatePaymentRequest{
		OrderID: uuid.New(), UserID: 7, Amount: decimal.NewFromInt(5), PaymentMethod: "PAYPAL",
	})
	require.NoError(t, err)

	mine, err := svc.ListUserPayments(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(42), mine[0].UserID)
}
