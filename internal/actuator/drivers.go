package actuator

import (
	"context"
	"strconv"

	"smartstorage/pkg/kafka"
	"smartstorage/pkg/logger"
)

const eventTypeCommand = "locker.actuator.command"

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaDriver publishes commands for the GPIO bridge, keyed by locker so
// each latch sees its commands in order.
type KafkaDriver struct {
	publisher Publisher
	source    string
}

func NewKafkaDriver(publisher Publisher, source string) *KafkaDriver {
	return &KafkaDriver{publisher: publisher, source: source}
}

func (d *KafkaDriver) Drive(ctx context.Context, cmd Command) error {
	msg, err := kafka.NewMessage().
		WithKey(strconv.Itoa(cmd.Locker)).
		WithValue(cmd).
		WithEventType(eventTypeCommand).
		WithSource(d.source).
		Build()
	if err != nil {
		return err
	}
	return d.publisher.Publish(ctx, msg)
}

// LogDriver only logs commands. Used when no hardware is attached.
type LogDriver struct {
	log *logger.Logger
}

func NewLogDriver(log *logger.Logger) *LogDriver {
	return &LogDriver{log: log.Component("actuator")}
}

func (d *LogDriver) Drive(_ context.Context, cmd Command) error {
	d.log.Info("Actuator command",
		"action", cmd.Action,
		"locker", cmd.Locker,
		"channel", cmd.Channel,
		"pulse_width_us", cmd.PulseWidth,
	)
	return nil
}
