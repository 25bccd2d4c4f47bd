// Package session runs one access session at a time: identify whoever rang
// the doorbell, then either hand a resident their packages or walk a
// carrier through dropping one off.
//
// A session runs on its own goroutine. Every state change is made under the
// session mutex and only while the run is still current, so Abort can reset
// to idle synchronously and nothing from the aborted run leaks out
// afterwards. Collaborator calls (camera, vision, actuator, notifier) never
// run under the mutex; a step re-checks that its run is current once the
// call returns.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartstorage/internal/directory"
	"smartstorage/internal/lockers/eviction"
	"smartstorage/internal/lockers/registry"
	"smartstorage/internal/presenter"
	"smartstorage/pkg/clock"
	"smartstorage/pkg/logger"
	"smartstorage/pkg/metrics"
	"smartstorage/pkg/model"
)

const auditTimeout = 5 * time.Second

// errAborted is returned by helpers once the run has been replaced or
// aborted.
var errAborted = errors.New("session aborted")

type Config struct {
	RecognitionTimeout time.Duration
	TagScanTimeout     time.Duration
	CarrierIdleTimeout time.Duration
	PollInterval       time.Duration
	ResultHold         time.Duration
}

type Deps struct {
	Registry   *registry.Registry
	Directory  *directory.Directory
	Policy     eviction.Policy
	Camera     Camera
	Recognizer Recognizer
	Scanner    TagScanner
	Actuator   Actuator
	Notifier   Notifier
	Presenter  presenter.Presenter
	Audit      AuditLog
	Clock      clock.Clock
	Log        *logger.Logger
	// OnFatal is called after a session ends with a configuration error.
	OnFatal func(error)
}

type Session struct {
	cfg  Config
	deps Deps
	log  *logger.Logger

	flows map[string]flow

	mu          sync.Mutex
	state       State
	lastOutcome Outcome
	run         *run
}

// run is one session from doorbell to reset. Fields read by Snapshot or
// Abort are written under Session.mu.
type run struct {
	id        string
	ctx       context.Context
	cancel    context.CancelFunc
	closeCh   chan struct{}
	done      chan struct{}
	startedAt time.Time
	log       *logger.Logger

	identity     model.Identity
	pendingTag   string
	activeLocker int
	lockers      []int
	evicted      *model.Locker
	// settled is set once the outcome has been recorded. The run stays
	// current through the result hold.
	settled bool

	// owned by the run goroutine
	next     string
	outcome  Outcome
	notice   string
	resolved model.RegisteredUser
}

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	ID           string    `json:"id,omitempty"`
	State        State     `json:"state"`
	Active       bool      `json:"active"`
	LastOutcome  Outcome   `json:"last_outcome"`
	ActiveLocker int       `json:"active_locker,omitempty"`
	PendingTag   string    `json:"pending_tag,omitempty"`
	StartedAt    time.Time `json:"started_at,omitzero"`
}

func New(cfg Config, deps Deps) (*Session, error) {
	switch {
	case deps.Registry == nil:
		return nil, fmt.Errorf("session: registry is required")
	case deps.Directory == nil:
		return nil, fmt.Errorf("session: directory is required")
	case deps.Camera == nil || deps.Recognizer == nil || deps.Scanner == nil:
		return nil, fmt.Errorf("session: camera, recognizer and scanner are required")
	case deps.Actuator == nil:
		return nil, fmt.Errorf("session: actuator is required")
	case deps.Notifier == nil:
		return nil, fmt.Errorf("session: notifier is required")
	case deps.Presenter == nil:
		return nil, fmt.Errorf("session: presenter is required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	if deps.OnFatal == nil {
		deps.OnFatal = func(error) {}
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("session: poll interval must be positive")
	}

	s := &Session{
		cfg:  cfg,
		deps: deps,
		log:  deps.Log.Component("session"),
	}
	s.flows = s.buildFlows()
	s.deps.Presenter.Indicate(presenter.IndicatorOff)
	s.deps.Presenter.Show(msgWelcome)
	return s, nil
}

// Doorbell starts a session. It is ignored, returning false, while another
// session is active.
func (s *Session) Doorbell(ctx context.Context) bool {
	s.mu.Lock()
	if s.run != nil {
		s.log.Debug("Doorbell ignored, session already active", "session_id", s.run.id, "state", s.state)
		s.mu.Unlock()
		return false
	}

	id := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)
	r := &run{
		id:        id,
		ctx:       runCtx,
		cancel:    cancel,
		closeCh:   make(chan struct{}, 1),
		done:      make(chan struct{}),
		startedAt: s.deps.Clock.Now(),
		log:       s.log.With("session_id", id),
	}
	s.run = r
	s.state = StateCheckingIdentity
	s.mu.Unlock()

	r.log.Info("Session started")
	go s.execute(r)
	return true
}

// ConfirmClose delivers the close button press. It only has an effect while
// waiting for the carrier to close the locker.
func (s *Session) ConfirmClose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil || s.state != StateAwaitingManualClose {
		return false
	}
	select {
	case s.run.closeCh <- struct{}{}:
	default:
	}
	return true
}

// Abort cancels the active session and resets to idle before returning.
// Commands already sent to the actuator are not undone. During the result
// hold the recorded outcome is kept and only the hold is cut short.
func (s *Session) Abort() bool {
	s.mu.Lock()
	r := s.run
	if r == nil {
		s.mu.Unlock()
		return false
	}
	r.cancel()
	settled := r.settled
	var rec model.SessionRecord
	if !settled {
		rec = s.recordLocked(r, OutcomeAborted)
	}
	s.idleLocked()
	s.mu.Unlock()

	if settled {
		r.log.Info("Result hold cut short")
		return true
	}
	r.log.Info("Session aborted")
	s.finished(rec)
	return true
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state, LastOutcome: s.lastOutcome}
	if r := s.run; r != nil {
		snap.ID = r.id
		snap.Active = true
		snap.ActiveLocker = r.activeLocker
		snap.PendingTag = r.pendingTag
		snap.StartedAt = r.startedAt
	}
	return snap
}

// Wait blocks until the current run's goroutine exits. It returns at once
// when idle.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	r := s.run
	s.mu.Unlock()
	if r == nil {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// execute drives r through its flows, records the outcome, holds the
// result on the presenter and resets the session.
func (s *Session) execute(r *run) {
	defer close(r.done)

	name := flowIdentify
	for name != "" {
		r.next = ""
		if err := s.runFlow(r, s.flows[name]); err != nil {
			s.fail(r, err)
			return
		}
		name = r.next
	}

	if !s.settle(r, r.outcome) {
		return
	}
	_ = s.pause(r.ctx, s.cfg.ResultHold)
	s.release(r)
}

func (s *Session) fail(r *run, err error) {
	if !s.live(r) {
		return
	}
	if errors.Is(err, errAborted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.complete(r, OutcomeAborted)
		return
	}
	if isConfigurationError(err) {
		r.log.Error("Session stopped on configuration error", "error", err)
		if s.complete(r, OutcomeConfigurationError) {
			s.deps.OnFatal(err)
		}
		return
	}
	r.log.Error("Session failed", "error", err)
	s.complete(r, OutcomeFailed)
}

// complete records outcome and resets to idle if r is still current.
func (s *Session) complete(r *run, outcome Outcome) bool {
	if !s.settle(r, outcome) {
		return false
	}
	s.release(r)
	return true
}

// settle records r's outcome once, while r is still current. The session
// stays active until release.
func (s *Session) settle(r *run, outcome Outcome) bool {
	s.mu.Lock()
	if s.run != r || r.settled {
		s.mu.Unlock()
		return false
	}
	rec := s.recordLocked(r, outcome)
	s.mu.Unlock()

	r.log.Info("Session finished", "outcome", outcome, "duration", rec.EndedAt.Sub(rec.StartedAt))
	s.finished(rec)
	return true
}

// release resets to idle if r is still current.
func (s *Session) release(r *run) {
	s.mu.Lock()
	current := s.run == r
	if current {
		s.idleLocked()
	}
	s.mu.Unlock()
	r.cancel()
}

// recordLocked sets the last outcome and builds the audit record. The
// caller holds s.mu.
func (s *Session) recordLocked(r *run, outcome Outcome) model.SessionRecord {
	rec := model.SessionRecord{
		ID:        r.id,
		StartedAt: r.startedAt,
		EndedAt:   s.deps.Clock.Now(),
		Outcome:   outcome.String(),
		Tag:       r.pendingTag,
		Lockers:   append([]int(nil), r.lockers...),
		Evicted:   r.evicted,
	}
	if r.identity.Kind != "" {
		rec.Identity = string(r.identity.Kind)
		if r.identity.Name != "" {
			rec.Identity += ":" + r.identity.Name
		}
	}

	r.settled = true
	s.lastOutcome = outcome
	return rec
}

// idleLocked is the single reset path. The caller holds s.mu.
func (s *Session) idleLocked() {
	s.run = nil
	s.state = StateIdle
	s.deps.Presenter.Indicate(presenter.IndicatorOff)
	s.deps.Presenter.Show(msgWelcome)
}

func (s *Session) finished(rec model.SessionRecord) {
	metrics.RecordSession(rec.Outcome, rec.EndedAt.Sub(rec.StartedAt))
	if s.deps.Audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()
	if err := s.deps.Audit.Record(ctx, rec); err != nil {
		s.log.Warn("Failed to record session", "session_id", rec.ID, "error", err)
	}
}

func (s *Session) live(r *run) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run == r
}

// current returns errAborted once r has been replaced or aborted.
func (s *Session) current(r *run) error {
	if !s.live(r) {
		return errAborted
	}
	return nil
}

// effect runs fn under the session mutex if r is still current. fn must
// not block on I/O.
func (s *Session) effect(r *run, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != r {
		return errAborted
	}
	return fn()
}

func (s *Session) transition(r *run, to State) error {
	return s.effect(r, func() error {
		r.log.Debug("State changed", "from", s.state, "to", to)
		s.state = to
		return nil
	})
}

func (s *Session) show(r *run, msg string) error {
	return s.effect(r, func() error {
		s.deps.Presenter.Show(msg)
		return nil
	})
}

func (s *Session) indicate(r *run, ind presenter.Indicator) error {
	return s.effect(r, func() error {
		s.deps.Presenter.Indicate(ind)
		return nil
	})
}

func (s *Session) cue(r *run, c presenter.Cue) error {
	return s.effect(r, func() error {
		s.deps.Presenter.Play(c)
		return nil
	})
}

// pause waits d on the session clock unless ctx ends first.
func (s *Session) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-s.deps.Clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
