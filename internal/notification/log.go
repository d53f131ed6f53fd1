package notification

import (
	"context"

	"github.com/dtroode/shopwise-auth/internal/logger"
	"github.com/dtroode/shopwise-auth/internal/model"
)

var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes messages to the log instead of delivering them.
// Meant for local development.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(logger *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, identity model.Identity, message model.Message) error {
	n.logger.Info("Notifier: message",
		"kind", message.Kind,
		"channel", identity.Kind,
		"recipient", identity.Key,
		"subject", message.Subject,
		"body", message.Body,
	)
	return nil
}
