// Package template resolves default subjects, template names and bodies for
// notification types.
package template

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/marketly/fulfillment/internal/notification/service/models/notification"
)

const defaultSubject = "Notification from Marketly"

var subjects = map[notification.Type]string{
	notification.TypeOrderCreated:       "Your order has been created",
	notification.TypeOrderStatusUpdated: "Your order status has been updated",
	notification.TypeOrderCancelled:     "Your order has been cancelled",
	notification.TypeUserRegistered:     "Welcome to Marketly",
	notification.TypeUserEmailVerified:  "Your email has been verified",
	notification.TypePasswordReset:      "Password reset requested",
	notification.TypeAccountLocked:      "Your account has been locked",
}

var templateNames = map[notification.Type]string{
	notification.TypeOrderCreated:       "order-created",
	notification.TypeOrderStatusUpdated: "order-status-updated",
	notification.TypeOrderCancelled:     "order-cancelled",
	notification.TypeUserRegistered:     "user-registered",
	notification.TypeUserEmailVerified:  "user-email-verified",
	notification.TypePasswordReset:      "password-reset",
	notification.TypeAccountLocked:      "account-locked",
}

var bodies = map[string]string{
	"order-created": "<p>Hello {{.UserName}},</p>" +
		"<p>Your order {{.OrderNumber}} for {{.TotalAmount}} has been created.</p>",
	"order-status-updated": "<p>Hello {{.UserName}},</p>" +
		"<p>Your order {{.OrderNumber}} moved from {{.PreviousStatus}} to {{.NewStatus}}.</p>",
	"order-cancelled": "<p>Hello {{.UserName}},</p>" +
		"<p>Your order {{.OrderNumber}} has been cancelled.</p>",
	"user-registered": "<p>Hello {{.UserName}},</p>" +
		"<p>Welcome to Marketly. Your account is ready.</p>",
	"user-email-verified": "<p>Hello {{.UserName}},</p>" +
		"<p>Your email address has been verified.</p>",
	"password-reset": "<p>Hello {{.UserName}},</p>" +
		"<p>A password reset was requested for your account.</p>",
	"account-locked": "<p>Hello {{.UserName}},</p>" +
		"<p>Your account has been locked. Reason: {{.Reason}}.</p>",
}

// Subject returns the default subject for the notification type.
func Subject(t notification.Type) string {
	if s, ok := subjects[t]; ok {
		return s
	}

	return defaultSubject
}

// Name returns the template name for the notification type, or empty when
// no template is associated with it.
func Name(t notification.Type) string {
	return templateNames[t]
}

// Render fills the named template with data. Values are HTML-escaped, the
// event payloads carry user-supplied names.
func Render(name string, data any) (string, error) {
	body, ok := bodies[name]
	if !ok {
		return "", fmt.Errorf("unknown template: %q", name)
	}

	tmpl, err := template.New(name).Parse(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", name, err)
	}

	return buf.String(), nil
}
