package template

import (
	"testing"

	"github.com/marketly/fulfillment/internal/notification/service/models/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectPerType(t *testing.T) {
	assert.Equal(t, "Your order has been created", Subject(notification.TypeOrderCreated))
	assert.Equal(t, "Your order has been cancelled", Subject(notification.TypeOrderCancelled))
	assert.Equal(t, "Welcome to Marketly", Subject(notification.TypeUserRegistered))
}

func TestSubjectFallback(t *testing.T) {
	assert.Equal(t, "Notification from Marketly", Subject(notification.Type("SOMETHING_ELSE")))
}

func TestNameUnknownTypeIsEmpty(t *testing.T) {
	assert.Equal(t, "", Name(notification.Type("SOMETHING_ELSE")))
}

func TestRenderSubstitutesFields(t *testing.T) {
	out, err := Render("order-status-updated", map[string]any{
		"UserName":       "Jane",
		"OrderNumber":    "ORD-1",
		"PreviousStatus": "CREATED",
		"NewStatus":      "SHIPPED",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Hello Jane")
	assert.Contains(t, out, "from CREATED to SHIPPED")
}

func TestRenderEscapesUserSuppliedValues(t *testing.T) {
	out, err := Render("account-locked", map[string]any{
		"UserName": "Jane",
		"Reason":   `<script>alert("x")</script>`,
	})
	require.NoError(t, err)

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("no-such-template", nil)
	assert.Error(t, err)
}

func TestEveryTypeHasABody(t *testing.T) {
	types := []notification.Type{
		notification.TypeOrderCreated,
		notification.TypeOrderStatusUpdated,
		notification.TypeOrderCancelled,
		notification.TypeUserRegistered,
		notification.TypeUserEmailVerified,
		notification.TypePasswordReset,
		notification.TypeAccountLocked,
	}
	for _, typ := range types {
		name := Name(typ)
		require.NotEmpty(t, name, "type %s has no template name", typ)

		_, err := Render(name, map[string]any{})
		assert.NoError(t, err, "type %s", typ)
	}
}
