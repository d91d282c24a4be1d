// Package channel defines the delivery providers the dispatcher sends
// through and the registry that selects one per notification.
package channel

import (
	"context"

	"github.com/marketly/fulfillment/internal/notification/service/models/notification"
)

// Provider delivers notifications over one channel.
type Provider interface {
	// Send delivers the notification.
	Send(ctx context.Context, n *notification.Notification) error

	// ChannelType reports which channel the provider serves.
	ChannelType() notification.Channel

	// IsAvailable reports whether the provider can currently deliver.
	IsAvailable() bool
}

// Registry holds the configured providers by channel.
type Registry struct {
	providers map[notification.Channel]Provider
}

// NewRegistry creates a registry over the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[notification.Channel]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.ChannelType()] = p
	}

	return r
}

// Get returns the provider for the channel, if one is registered.
func (r *Registry) Get(ch notification.Channel) (Provider, bool) {
	p, ok := r.providers[ch]

	return p, ok
}
