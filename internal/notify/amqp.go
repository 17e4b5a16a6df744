package notify

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys on the notifications exchange. Downstream delivery workers
// bind per channel.
const (
	routingKeyEmail = "notify.email"
	routingKeySMS   = "notify.sms"
)

const publishTimeout = 5 * time.Second

// AMQPTransport publishes notification payloads to a RabbitMQ topic
// exchange. The actual email/SMS submission is done by consumers outside
// this service; publishing is the extent of the core's responsibility.
type AMQPTransport struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

var (
	_ EmailSender = (*AMQPTransport)(nil)
	_ SMSSender   = (*AMQPTransport)(nil)
)

// DialAMQP connects to the broker and declares the durable topic exchange.
func DialAMQP(url, exchange string) (*AMQPTransport, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial amqp")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}

	return &AMQPTransport{conn: conn, ch: ch, exchange: exchange}, nil
}

// SendEmail implements EmailSender.
func (t *AMQPTransport) SendEmail(ctx context.Context, to, subject, body string) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("to", func(e *jx.Encoder) { e.Str(to) })
		e.Field("subject", func(e *jx.Encoder) { e.Str(subject) })
		e.Field("body", func(e *jx.Encoder) { e.Str(body) })
	})
	return t.publish(ctx, routingKeyEmail, e.Bytes())
}

// SendSMS implements SMSSender.
func (t *AMQPTransport) SendSMS(ctx context.Context, to, text string) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("to", func(e *jx.Encoder) { e.Str(to) })
		e.Field("text", func(e *jx.Encoder) { e.Str(text) })
	})
	return t.publish(ctx, routingKeySMS, e.Bytes())
}

func (t *AMQPTransport) publish(ctx context.Context, key string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := t.ch.PublishWithContext(ctx,
		t.exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return errors.Wrapf(err, "publish %s", key)
	}
	return nil
}

// Close releases the channel and connection.
func (t *AMQPTransport) Close() error {
	if err := t.ch.Close(); err != nil {
		_ = t.conn.Close()
		return errors.Wrap(err, "close channel")
	}
	return t.conn.Close()
}
