// Package notify delivers best-effort new-order notifications to the
// fulfilling restaurant over email and SMS. Every channel runs in its own
// failure boundary: a failed or skipped channel is logged and never
// affects the order placement that triggered it.
package notify

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/feastly/feastly/internal/domain/order"
)

// ErrNoRecipient is returned by a channel when the restaurant lacks the
// contact detail the channel needs. The dispatcher logs it as a warning
// rather than an error.
var ErrNoRecipient = errors.New("no recipient contact information")

// Channel delivers one rendering of an order notification.
type Channel interface {
	Name() string
	Notify(ctx context.Context, n order.Notification) error
}

// Dispatcher fans an order notification out to all channels concurrently
// and waits for every attempt, so failures can be logged before the
// request completes.
type Dispatcher struct {
	channels []Channel
}

var _ order.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher over the given channels.
func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// OrderPlaced implements order.Notifier.
func (d *Dispatcher) OrderPlaced(ctx context.Context, n order.Notification) {
	lg := zctx.From(ctx).With(
		zap.String("order_id", n.Order.ID),
		zap.String("order_number", n.Order.Number),
	)

	var g errgroup.Group
	for _, ch := range d.channels {
		g.Go(func() error {
			err := ch.Notify(ctx, n)
			switch {
			case errors.Is(err, ErrNoRecipient):
				lg.Warn("notification channel skipped",
					zap.String("channel", ch.Name()),
					zap.Error(err),
				)
			case err != nil:
				lg.Error("notification delivery failed",
					zap.String("channel", ch.Name()),
					zap.Error(err),
				)
			}
			// Best effort by contract: the error never leaves the boundary.
			return nil
		})
	}
	_ = g.Wait()
}
