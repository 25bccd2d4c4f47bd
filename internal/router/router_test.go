package router

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartstorage/internal/presenter"
	"smartstorage/pkg/kafka"
	"smartstorage/pkg/logger"
)

type fakeTarget struct {
	mu        sync.Mutex
	active    bool
	doorbells int
	closes    int
	aborts    int
}

func (f *fakeTarget) Doorbell(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active {
		return false
	}
	f.active = true
	f.doorbells++
	return true
}

func (f *fakeTarget) ConfirmClose() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return true
}

func (f *fakeTarget) Abort() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborts++
	f.active = false
	return true
}

func (f *fakeTarget) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeTarget) counts() (doorbells, closes, aborts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doorbells, f.closes, f.aborts
}

func startRouter(t *testing.T, target Target, cfg Config) *Router {
	t.Helper()
	r := New(target, cfg, logger.Discard())
	startWith(t, r)
	return r
}

func startWith(t *testing.T, r *Router) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestParseSignal(t *testing.T) {
	tests := []struct {
		in      string
		want    Signal
		wantErr bool
	}{
		{"doorbell", SignalDoorbell, false},
		{" Close ", SignalClose, false},
		{"ABORT", SignalAbort, false},
		{"shutdown", SignalShutdown, false},
		{" QUIT", SignalQuit, false},
		{"reboot", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSignal(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownSignal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubmit_DebouncesRepeatedPress(t *testing.T) {
	target := &fakeTarget{}
	r := startRouter(t, target, Config{DebounceWindow: 200 * time.Millisecond, QueueSize: 8})

	require.NoError(t, r.Submit(SignalDoorbell))
	assert.ErrorIs(t, r.Submit(SignalDoorbell), ErrDebounced)
	assert.ErrorIs(t, r.Submit(SignalDoorbell), ErrDebounced)

	require.Eventually(t, func() bool {
		d, _, _ := target.counts()
		return d == 1
	}, time.Second, time.Millisecond)
}

func TestSubmit_DebounceIsPerSignal(t *testing.T) {
	target := &fakeTarget{}
	r := startRouter(t, target, Config{DebounceWindow: time.Second, QueueSize: 8})

	require.NoError(t, r.Submit(SignalDoorbell))
	require.Eventually(t, target.Active, time.Second, time.Millisecond)
	require.NoError(t, r.Submit(SignalAbort))

	require.Eventually(t, func() bool {
		_, _, a := target.counts()
		return a == 1
	}, time.Second, time.Millisecond)
}

func TestSubmit_AcceptedAgainAfterWindow(t *testing.T) {
	r := New(&fakeTarget{}, Config{DebounceWindow: 20 * time.Millisecond, QueueSize: 8}, logger.Discard())

	require.NoError(t, r.Submit(SignalClose))
	require.Eventually(t, func() bool {
		return r.Submit(SignalClose) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestSubmit_QueueFull(t *testing.T) {
	r := New(&fakeTarget{}, Config{DebounceWindow: time.Millisecond, QueueSize: 1}, logger.Discard())

	require.NoError(t, r.Submit(SignalDoorbell))
	assert.ErrorIs(t, r.Submit(SignalClose), ErrQueueFull)
}

func TestRun_DropsNonDoorbellWhenIdle(t *testing.T) {
	target := &fakeTarget{}
	r := startRouter(t, target, Config{DebounceWindow: time.Millisecond, QueueSize: 8})

	require.NoError(t, r.Submit(SignalClose))
	require.NoError(t, r.Submit(SignalAbort))
	require.NoError(t, r.Submit(SignalDoorbell))

	require.Eventually(t, target.Active, time.Second, time.Millisecond)
	_, closes, aborts := target.counts()
	assert.Zero(t, closes)
	assert.Zero(t, aborts)
}

func TestRun_SignalsAppliedInOrder(t *testing.T) {
	target := &fakeTarget{}
	r := New(target, Config{DebounceWindow: time.Millisecond, QueueSize: 8}, logger.Discard())

	require.NoError(t, r.Submit(SignalDoorbell))
	require.NoError(t, r.Submit(SignalClose))
	require.NoError(t, r.Submit(SignalAbort))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	require.Eventually(t, func() bool {
		_, _, a := target.counts()
		return a == 1
	}, time.Second, time.Millisecond)
	cancel()
	<-done

	d, c, a := target.counts()
	assert.Equal(t, 1, d)
	assert.Equal(t, 1, c)
	assert.Equal(t, 1, a)
}

func TestRun_ShutdownAbortsSessionAndHalts(t *testing.T) {
	target := &fakeTarget{active: true}
	r := New(target, Config{DebounceWindow: time.Millisecond, QueueSize: 8}, logger.Discard())
	var display presenter.Recorder
	halted := make(chan error, 1)
	r.OnHalt(&display, func(cause error) { halted <- cause })
	startWith(t, r)

	require.NoError(t, r.Submit(SignalShutdown))

	select {
	case cause := <-halted:
		assert.ErrorIs(t, cause, ErrStopRequested)
		assert.Contains(t, cause.Error(), "shutdown")
	case <-time.After(time.Second):
		t.Fatal("shutdown did not halt the controller")
	}
	_, _, aborts := target.counts()
	assert.Equal(t, 1, aborts)
	assert.Equal(t, []string{"Shutting down the system. Have a great day!"}, display.Shown())
}

func TestRun_QuitWhileIdle(t *testing.T) {
	target := &fakeTarget{}
	r := New(target, Config{DebounceWindow: time.Millisecond, QueueSize: 8}, logger.Discard())
	var display presenter.Recorder
	halted := make(chan error, 1)
	r.OnHalt(&display, func(cause error) { halted <- cause })
	startWith(t, r)

	require.NoError(t, r.Submit(SignalQuit))

	select {
	case cause := <-halted:
		assert.ErrorIs(t, cause, ErrStopRequested)
	case <-time.After(time.Second):
		t.Fatal("quit did not halt the controller")
	}
	assert.Equal(t, []string{"Quitting the system..."}, display.Shown())
}

func TestRun_StopSignalIgnoredWithoutHalt(t *testing.T) {
	target := &fakeTarget{active: true}
	r := startRouter(t, target, Config{DebounceWindow: time.Millisecond, QueueSize: 8})

	require.NoError(t, r.Submit(SignalShutdown))
	require.NoError(t, r.Submit(SignalClose))

	require.Eventually(t, func() bool {
		_, c, _ := target.counts()
		return c == 1
	}, time.Second, time.Millisecond)
	_, _, aborts := target.counts()
	assert.Zero(t, aborts)
}

func TestHandleMessage(t *testing.T) {
	r := New(&fakeTarget{}, Config{DebounceWindow: time.Second, QueueSize: 8}, logger.Discard())

	msg, err := kafka.NewMessage().WithValue(signalEvent{Signal: "doorbell"}).Build()
	require.NoError(t, err)
	require.NoError(t, r.HandleMessage(context.Background(), msg))
	require.NoError(t, r.HandleMessage(context.Background(), msg), "debounced press is dropped, not failed")

	bad, err := kafka.NewMessage().WithValue(signalEvent{Signal: "reboot"}).Build()
	require.NoError(t, err)
	err = r.HandleMessage(context.Background(), bad)
	require.Error(t, err)
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))

	garbage := kafka.Message{Value: []byte("{")}
	assert.Error(t, r.HandleMessage(context.Background(), garbage))
}
