// Package sms delivers notifications over SMS.
package sms

import (
	"context"
	"log/slog"
	"time"

	"github.com/marketly/fulfillment/internal/notification/service/models/notification"
)

// Provider simulates SMS delivery.
// TODO: integrate a real SMS provider (Twilio or SMSC) once an account exists.
type Provider struct{}

// NewProvider creates the simulated SMS provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Send simulates delivery with a short delay and always succeeds.
func (p *Provider) Send(_ context.Context, n *notification.Notification) error {
	time.Sleep(100 * time.Millisecond)

	slog.Info("SMS sent", "notification_id", n.ID, "recipient", n.Recipient)

	return nil
}

// ChannelType reports the channel the provider serves.
func (p *Provider) ChannelType() notification.Channel {
	return notification.ChannelSMS
}

// IsAvailable always reports true for the simulated provider.
func (p *Provider) IsAvailable() bool {
	return true
}
