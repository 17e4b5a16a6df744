package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport writes notifications to the service log instead of a
// broker. Used in development and in deployments without RabbitMQ.
type LogTransport struct {
	lg *zap.Logger
}

var (
	_ EmailSender = (*LogTransport)(nil)
	_ SMSSender   = (*LogTransport)(nil)
)

// NewLogTransport creates a transport that logs instead of delivering.
func NewLogTransport(lg *zap.Logger) *LogTransport {
	return &LogTransport{lg: lg}
}

// SendEmail implements EmailSender.
func (t *LogTransport) SendEmail(_ context.Context, to, subject, body string) error {
	t.lg.Info("email notification",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// SendSMS implements SMSSender.
func (t *LogTransport) SendSMS(_ context.Context, to, text string) error {
	t.lg.Info("sms notification",
		zap.String("to", to),
		zap.String("text", text),
	)
	return nil
}
