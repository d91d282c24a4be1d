package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/internal/order/service/models/orderitem"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalRecomputedFromItems(t *testing.T) {
	o := Order{
		ID: uuid.New(),
		Items: []orderitem.OrderItem{
			{Price: decimal.RequireFromString("10.00"), Quantity: 2},
			{Price: decimal.RequireFromString("5.00"), Quantity: 1},
		},
	}

	assert.True(t, o.Total().Equal(decimal.RequireFromString("25.00")))
}

func TestTotalOfEmptyOrderIsZero(t *testing.T) {
	o := Order{ID: uuid.New()}

	assert.True(t, o.Total().IsZero())
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"CREATED", "PAID", "SHIPPED", "DELIVERED", "CANCELLED"} {
		s, err := ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, Status(valid), s)
	}

	_, err := ParseStatus("REFUNDED")
	assert.Error(t, err)
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("CASH_ON_DELIVERY")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCashOnDelivery, m)

	_, err = ParsePaymentMethod("BARTER")
	assert.Error(t, err)
}

func TestParseDeliveryType(t *testing.T) {
	d, err := ParseDeliveryType("PICKUP")
	require.NoError(t, err)
	assert.Equal(t, DeliveryTypePickup, d)

	_, err = ParseDeliveryType("DRONE")
	assert.Error(t, err)
}
