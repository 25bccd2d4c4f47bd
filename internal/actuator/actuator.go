// Package actuator turns "open locker N" into a command for the servo that
// drives N's latch. The command is handed to a Driver; pulse generation
// itself happens on the GPIO side.
package actuator

import (
	"context"
	"errors"
	"fmt"

	apperrors "smartstorage/pkg/errors"
	"smartstorage/pkg/metrics"
)

var ErrUnmappedLocker = errors.New("locker has no actuator channel")

type Action string

const (
	ActionOpen  Action = "open"
	ActionClose Action = "close"
)

// Command is one latch movement.
type Command struct {
	Action     Action `json:"action"`
	Locker     int    `json:"locker"`
	Channel    int    `json:"channel"`
	PulseWidth int    `json:"pulse_width_us"`
}

type Driver interface {
	Drive(ctx context.Context, cmd Command) error
}

type Config struct {
	Channels        map[int]int
	OpenPulseWidth  int
	ClosePulseWidth int
}

type Actuator struct {
	channels map[int]int
	open     int
	close    int
	driver   Driver
}

func New(cfg Config, driver Driver) *Actuator {
	channels := make(map[int]int, len(cfg.Channels))
	for id, ch := range cfg.Channels {
		channels[id] = ch
	}
	return &Actuator{
		channels: channels,
		open:     cfg.OpenPulseWidth,
		close:    cfg.ClosePulseWidth,
		driver:   driver,
	}
}

func (a *Actuator) Open(ctx context.Context, locker int) error {
	return a.move(ctx, ActionOpen, locker, a.open)
}

func (a *Actuator) Close(ctx context.Context, locker int) error {
	return a.move(ctx, ActionClose, locker, a.close)
}

// move returns a CONFIGURATION_ERROR for a locker missing from the channel
// map; driver failures are returned wrapped.
func (a *Actuator) move(ctx context.Context, action Action, locker, width int) error {
	ch, ok := a.channels[locker]
	if !ok {
		err := apperrors.Configuration(fmt.Sprintf("locker %d has no actuator channel", locker), ErrUnmappedLocker)
		metrics.RecordActuation(string(action), err)
		return err
	}

	err := a.driver.Drive(ctx, Command{Action: action, Locker: locker, Channel: ch, PulseWidth: width})
	metrics.RecordActuation(string(action), err)
	if err != nil {
		return fmt.Errorf("%s locker %d: %w", action, locker, err)
	}
	return nil
}
