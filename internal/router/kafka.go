package router

import (
	"context"
	"errors"

	"smartstorage/pkg/kafka"
)

type signalEvent struct {
	Signal string `json:"signal"`
}

// HandleMessage is the Kafka handler for button events published by the
// GPIO bridge. Malformed events are permanent failures; debounced and
// overflow presses are dropped.
func (r *Router) HandleMessage(_ context.Context, msg kafka.Message) error {
	var ev signalEvent
	if err := msg.DecodeValue(&ev); err != nil {
		return kafka.NewPermanentError("decode signal event", err)
	}
	sig, err := ParseSignal(ev.Signal)
	if err != nil {
		return kafka.NewPermanentError("parse signal event", err)
	}

	err = r.Submit(sig)
	if errors.Is(err, ErrDebounced) || errors.Is(err, ErrQueueFull) {
		return nil
	}
	return err
}
