// Package router serializes button presses into session events. Presses
// are debounced per signal kind, queued, and applied by a single consumer.
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"smartstorage/internal/presenter"
	"smartstorage/pkg/logger"
	"smartstorage/pkg/metrics"
)

const (
	resultAccepted  = "accepted"
	resultIgnored   = "ignored"
	resultDropped   = "dropped"
	resultDebounced = "debounced"
	resultQueueFull = "queue_full"
)

// Target is the session the router drives.
type Target interface {
	Doorbell(ctx context.Context) bool
	ConfirmClose() bool
	Abort() bool
	Active() bool
}

// HaltFunc stops the controller with the given cause.
type HaltFunc func(cause error)

type Config struct {
	DebounceWindow time.Duration
	QueueSize      int
}

type Router struct {
	target Target
	log    *logger.Logger
	queue  chan Signal

	display presenter.Presenter
	halt    HaltFunc

	mu       sync.Mutex
	debounce *ttlcache.Cache[Signal, time.Time]
}

func New(target Target, cfg Config, log *logger.Logger) *Router {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}
	return &Router{
		target: target,
		log:    log.Component("router"),
		queue:  make(chan Signal, size),
		debounce: ttlcache.New(
			ttlcache.WithTTL[Signal, time.Time](cfg.DebounceWindow),
			ttlcache.WithDisableTouchOnHit[Signal, time.Time](),
		),
	}
}

// OnHalt installs what the quit and shutdown buttons do: the farewell is
// shown on display and halt is called. Without it those signals are
// ignored.
func (r *Router) OnHalt(display presenter.Presenter, halt HaltFunc) {
	r.display = display
	r.halt = halt
}

// Submit enqueues sig without blocking. A repeat of the same signal within
// the debounce window is rejected with ErrDebounced.
func (r *Router) Submit(sig Signal) error {
	r.mu.Lock()
	if item := r.debounce.Get(sig); item != nil {
		r.mu.Unlock()
		metrics.RecordSignal(string(sig), resultDebounced)
		r.log.Debug("Signal debounced", "signal", sig, "first_seen", item.Value())
		return ErrDebounced
	}
	r.debounce.Set(sig, time.Now(), ttlcache.DefaultTTL)
	r.mu.Unlock()

	select {
	case r.queue <- sig:
		return nil
	default:
		metrics.RecordSignal(string(sig), resultQueueFull)
		r.log.Warn("Signal queue full, dropping signal", "signal", sig)
		return ErrQueueFull
	}
}

// Run consumes the queue until ctx is done.
func (r *Router) Run(ctx context.Context) error {
	go r.debounce.Start()
	defer r.debounce.Stop()

	r.log.Info("Router started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("Router stopped")
			return nil
		case sig := <-r.queue:
			r.dispatch(ctx, sig)
		}
	}
}

func (r *Router) dispatch(ctx context.Context, sig Signal) {
	result := resultIgnored
	switch sig {
	case SignalDoorbell:
		if r.target.Doorbell(ctx) {
			result = resultAccepted
		}
	case SignalClose, SignalAbort:
		if !r.target.Active() {
			result = resultDropped
			break
		}
		var accepted bool
		if sig == SignalClose {
			accepted = r.target.ConfirmClose()
		} else {
			accepted = r.target.Abort()
		}
		if accepted {
			result = resultAccepted
		}
	case SignalQuit, SignalShutdown:
		if r.halt == nil {
			break
		}
		if r.target.Abort() {
			r.log.Info("Aborted active session before stopping", "signal", sig)
		}
		r.log.Info("Stop requested", "signal", sig)
		if r.display != nil {
			r.display.Show(Farewell(sig))
		}
		r.halt(fmt.Errorf("%w: %s button", ErrStopRequested, sig))
		result = resultAccepted
	}

	metrics.RecordSignal(string(sig), result)
	r.log.Debug("Signal dispatched", "signal", sig, "result", result)
}
