// Package email delivers notifications over SMTP.
package email

import (
	"context"
	"fmt"
	"os"

	"github.com/marketly/fulfillment/internal/notification/service/models/notification"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Provider sends email notifications through an SMTP relay.
type Provider struct {
	dialer *gomail.Dialer
	from   string
}

// NewProvider creates an email provider from viper smtp config and the
// SMTP_USERNAME and SMTP_PASSWORD env vars.
func NewProvider() *Provider {
	dialer := gomail.NewDialer(
		viper.GetString("smtp.host"),
		viper.GetInt("smtp.port"),
		os.Getenv("SMTP_USERNAME"),
		os.Getenv("SMTP_PASSWORD"),
	)

	from := viper.GetString("smtp.from")
	if from == "" {
		from = os.Getenv("SMTP_USERNAME")
	}

	return &Provider{dialer: dialer, from: from}
}

// Send delivers the notification as an email.
func (p *Provider) Send(_ context.Context, n *notification.Notification) error {
	if n.Recipient == "" {
		return fmt.Errorf("notification %s has no recipient address", n.ID)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", p.from)
	msg.SetHeader("To", n.Recipient)
	msg.SetHeader("Subject", n.Subject)
	msg.SetBody("text/html", n.Content)

	if err := p.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// ChannelType reports the channel the provider serves.
func (p *Provider) ChannelType() notification.Channel {
	return notification.ChannelEmail
}

// IsAvailable dials the relay to check it is reachable.
func (p *Provider) IsAvailable() bool {
	closer, err := p.dialer.Dial()
	if err != nil {
		return false
	}
	_ = closer.Close()

	return true
}
