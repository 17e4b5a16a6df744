package notify

import (
	"context"
	"fmt"

	"github.com/feastly/feastly/internal/domain/order"
)

// SMSSender is the delivery transport behind the SMS channel.
type SMSSender interface {
	SendSMS(ctx context.Context, to, text string) error
}

// SMSChannel renders a compact one-line order summary to the restaurant's
// phone number.
type SMSChannel struct {
	sender SMSSender
}

var _ Channel = (*SMSChannel)(nil)

// NewSMSChannel creates an SMS channel over the given transport.
func NewSMSChannel(sender SMSSender) *SMSChannel {
	return &SMSChannel{sender: sender}
}

func (c *SMSChannel) Name() string { return "sms" }

// Notify implements Channel. Restaurants without a phone number are
// skipped with ErrNoRecipient.
func (c *SMSChannel) Notify(ctx context.Context, n order.Notification) error {
	if n.RestaurantPhone == "" {
		return ErrNoRecipient
	}
	return c.sender.SendSMS(ctx, n.RestaurantPhone, smsText(n))
}

// smsText keeps the message short: number, item count, total, customer.
func smsText(n order.Notification) string {
	o := n.Order
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	return fmt.Sprintf("New order %s: %d item(s), total %s, from %s. Deliver to %s",
		o.Number, count, o.Total.StringFixed(2), n.CustomerName, o.DeliveryAddress)
}
