package notify

import (
	"context"

	"smartstorage/pkg/metrics"
)

type instrumented struct {
	next Sender
}

// Instrument counts every send by kind and result.
func Instrument(next Sender) Sender {
	return instrumented{next: next}
}

func (i instrumented) Send(ctx context.Context, n Notification) error {
	err := i.next.Send(ctx, n)
	metrics.RecordNotification(string(n.Kind), err)
	return err
}
