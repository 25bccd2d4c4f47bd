package actuator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "smartstorage/pkg/errors"
	"smartstorage/pkg/kafka"
	"smartstorage/pkg/logger"
)

type recordingDriver struct {
	cmds []Command
	err  error
}

func (d *recordingDriver) Drive(_ context.Context, cmd Command) error {
	d.cmds = append(d.cmds, cmd)
	return d.err
}

func newTestActuator(driver Driver) *Actuator {
	return New(Config{
		Channels:        map[int]int{1: 13, 2: 6, 3: 5, 4: 21, 5: 26, 6: 19, 7: 20},
		OpenPulseWidth:  500,
		ClosePulseWidth: 1500,
	}, driver)
}

func TestActuator_OpenClose(t *testing.T) {
	driver := &recordingDriver{}
	a := newTestActuator(driver)

	require.NoError(t, a.Open(context.Background(), 4))
	require.NoError(t, a.Close(context.Background(), 4))

	assert.Equal(t, []Command{
		{Action: ActionOpen, Locker: 4, Channel: 21, PulseWidth: 500},
		{Action: ActionClose, Locker: 4, Channel: 21, PulseWidth: 1500},
	}, driver.cmds)
}

func TestActuator_UnmappedLocker(t *testing.T) {
	driver := &recordingDriver{}
	a := newTestActuator(driver)

	err := a.Open(context.Background(), 9)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnmappedLocker)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConfiguration))
	assert.Empty(t, driver.cmds)
}

func TestActuator_DriverFailure(t *testing.T) {
	boom := errors.New("bridge offline")
	a := newTestActuator(&recordingDriver{err: boom})

	err := a.Close(context.Background(), 1)

	assert.ErrorIs(t, err, boom)
	assert.False(t, apperrors.HasCode(err, apperrors.CodeConfiguration))
}

func TestNew_CopiesChannelMap(t *testing.T) {
	channels := map[int]int{1: 13}
	driver := &recordingDriver{}
	a := New(Config{Channels: channels, OpenPulseWidth: 500, ClosePulseWidth: 1500}, driver)

	delete(channels, 1)

	require.NoError(t, a.Open(context.Background(), 1))
}

type fakePublisher struct {
	msgs []kafka.Message
}

func (p *fakePublisher) Publish(_ context.Context, msg kafka.Message) error {
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestKafkaDriver_Drive(t *testing.T) {
	pub := &fakePublisher{}
	d := NewKafkaDriver(pub, "locker-controller")

	cmd := Command{Action: ActionOpen, Locker: 3, Channel: 5, PulseWidth: 500}
	require.NoError(t, d.Drive(context.Background(), cmd))

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "3", pub.msgs[0].Key)
	assert.Equal(t, eventTypeCommand, pub.msgs[0].GetEventType())

	var decoded Command
	require.NoError(t, json.Unmarshal(pub.msgs[0].Value, &decoded))
	assert.Equal(t, cmd, decoded)
}

func TestLogDriver_Drive(t *testing.T) {
	var buf bytes.Buffer
	d := NewLogDriver(logger.New(logger.Config{Format: logger.TEXT, Output: &buf}))

	require.NoError(t, d.Drive(context.Background(), Command{Action: ActionClose, Locker: 2, Channel: 6, PulseWidth: 1500}))

	assert.Contains(t, buf.String(), "action=close")
	assert.Contains(t, buf.String(), "channel=6")
}
