package notify

import (
	"context"

	"smartstorage/pkg/logger"
)

// LogNotifier writes notifications to the log instead of sending them.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.Component("notifier")}
}

func (l *LogNotifier) Send(_ context.Context, n Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	l.log.Info("Notification",
		"kind", n.Kind,
		"to", n.To,
		"subject", n.Subject,
		"lockers", n.Lockers,
		"session_id", n.SessionID,
	)
	return nil
}
