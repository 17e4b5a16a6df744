package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/feastly/feastly/internal/domain/order"
)

// EmailSender is the delivery transport behind the email channel. Actual
// mail submission lives outside this core.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// EmailChannel renders a new-order summary as a plain-text email to the
// restaurant's address.
type EmailChannel struct {
	sender EmailSender
}

var _ Channel = (*EmailChannel)(nil)

// NewEmailChannel creates an email channel over the given transport.
func NewEmailChannel(sender EmailSender) *EmailChannel {
	return &EmailChannel{sender: sender}
}

func (c *EmailChannel) Name() string { return "email" }

// Notify implements Channel. Restaurants without an email address are
// skipped with ErrNoRecipient.
func (c *EmailChannel) Notify(ctx context.Context, n order.Notification) error {
	if n.RestaurantEmail == "" {
		return ErrNoRecipient
	}
	subject := fmt.Sprintf("New order %s", n.Order.Number)
	return c.sender.SendEmail(ctx, n.RestaurantEmail, subject, emailBody(n))
}

// emailBody renders the full order summary: number, customer, line items,
// total, delivery address, and the payment method when one was recorded.
func emailBody(n order.Notification) string {
	o := n.Order

	var b strings.Builder
	fmt.Fprintf(&b, "You have received a new order %s.\n\n", o.Number)
	fmt.Fprintf(&b, "Customer: %s\n", n.CustomerName)
	fmt.Fprintf(&b, "Deliver to: %s\n\n", o.DeliveryAddress)

	b.WriteString("Items:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %d x %s @ %s\n", it.Quantity, it.Name, it.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", o.Total.StringFixed(2))

	if p := o.Payment; p != nil {
		fmt.Fprintf(&b, "Payment: %s (%s), status %s\n", p.Method, p.Provider, string(p.Status))
	}
	if o.Notes != "" {
		fmt.Fprintf(&b, "\nCustomer notes: %s\n", o.Notes)
	}
	return b.String()
}
