package whatsapp

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier stands in for the Cloud API when it is not configured. The
// message is logged so local runs show what would have been sent.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message
func (n *LogNotifier) Send(_ context.Context, phone, message string) error {
	n.logger.Info("WhatsApp message (not sent, Cloud API disabled)",
		zap.String("to", phone),
		zap.Int("length", len(message)))
	n.logger.Debug("WhatsApp message body", zap.String("to", phone), zap.String("body", message))
	return nil
}
