package notify

import (
	"context"
	"fmt"

	"smartstorage/pkg/kafka"
)

const eventTypeNotification = "locker.notification"

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaNotifier hands notifications to a downstream mailer over Kafka.
// Messages are keyed by recipient so one resident's notices stay ordered.
type KafkaNotifier struct {
	publisher Publisher
	source    string
}

func NewKafkaNotifier(publisher Publisher, source string) *KafkaNotifier {
	return &KafkaNotifier{publisher: publisher, source: source}
}

func (k *KafkaNotifier) Send(ctx context.Context, n Notification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("invalid notification: %w", err)
	}

	msg, err := kafka.NewMessage().
		WithKey(n.To).
		WithValue(n).
		WithEventType(eventTypeNotification).
		WithCorrelationID(n.SessionID).
		WithSource(k.source).
		Build()
	if err != nil {
		return err
	}
	return k.publisher.Publish(ctx, msg)
}
