package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartstorage/internal/lockers/eviction"
	"smartstorage/internal/notify"
	"smartstorage/internal/presenter"
	apperrors "smartstorage/pkg/errors"
	"smartstorage/pkg/metrics"
	"smartstorage/pkg/model"
	"smartstorage/pkg/sanitizer"
)

const (
	flowIdentify = "identify"
	flowCollect  = "collect"
	flowDeliver  = "deliver"
	flowDeny     = "deny"
	flowTimeout  = "timeout"
)

// errStop ends a flow early. The step has already set the outcome.
var errStop = errors.New("flow stopped")

type step struct {
	name    string
	execute func(ctx context.Context, r *run) error
}

// flow is a named sequence of steps. A step picks the next flow by setting
// r.next.
type flow struct {
	name  string
	steps []step
}

func (s *Session) buildFlows() map[string]flow {
	flows := []flow{
		{flowIdentify, []step{
			{"announce", s.announce},
			{"recognize", s.recognize},
		}},
		{flowCollect, []step{
			{"lookup", s.lookupPackages},
			{"open", s.openForPickup},
			{"notify", s.notifyPickup},
		}},
		{flowDeliver, []step{
			{"scan", s.scanTag},
			{"resolve", s.resolveTag},
			{"allocate", s.allocate},
			{"open", s.openForDelivery},
			{"await-close", s.awaitClose},
			{"close", s.closeLocker},
			{"notify", s.notifyDelivery},
		}},
		{flowDeny, []step{
			{"deny", s.deny},
		}},
		{flowTimeout, []step{
			{"timeout", s.timeout},
		}},
	}

	m := make(map[string]flow, len(flows))
	for _, f := range flows {
		m[f.name] = f
	}
	return m
}

func (s *Session) runFlow(r *run, f flow) error {
	for _, st := range f.steps {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		err := st.execute(r.ctx, r)
		if errors.Is(err, errStop) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s flow: %s step failed: %w", f.name, st.name, err)
		}
	}
	return nil
}

// errStepDeadline is the cause of a poll attempt's context once the step
// timeout has elapsed.
var errStepDeadline = errors.New("step deadline reached")

// poll calls attempt every poll interval until it reports done, the timeout
// elapses, or ctx ends. Each attempt runs under a context that is cancelled
// at the deadline, and a result that arrives at or after the deadline is
// discarded. An error from a single attempt is logged and polling
// continues.
func poll[T any](s *Session, ctx context.Context, r *run, what string, timeout time.Duration, attempt func(ctx context.Context) (T, bool, error)) (T, bool, error) {
	var zero T
	deadline := s.deps.Clock.Now().Add(timeout)
	expired := s.deps.Clock.After(timeout)

	stepCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go func() {
		select {
		case <-expired:
			cancel(errStepDeadline)
		case <-stepCtx.Done():
		}
	}()

	for {
		value, done, err := try(stepCtx, attempt)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, false, ctxErr
		}
		if stepCtx.Err() != nil || !s.deps.Clock.Now().Before(deadline) {
			r.log.Debug("Poll deadline reached", "poll", what, "timeout", timeout)
			return zero, false, nil
		}
		if err != nil {
			r.log.Warn("Poll attempt failed", "poll", what, "error", err)
		} else if done {
			return value, true, nil
		}

		select {
		case <-stepCtx.Done():
			if ctxErr := ctx.Err(); ctxErr != nil {
				return zero, false, ctxErr
			}
			r.log.Debug("Poll deadline reached", "poll", what, "timeout", timeout)
			return zero, false, nil
		case <-s.deps.Clock.After(s.cfg.PollInterval):
		}
	}
}

type attemptResult[T any] struct {
	value T
	done  bool
	err   error
}

// try runs one attempt and stops waiting for it when ctx ends. The attempt
// goroutine finishes on its own; its result is dropped.
func try[T any](ctx context.Context, attempt func(ctx context.Context) (T, bool, error)) (T, bool, error) {
	results := make(chan attemptResult[T], 1)
	go func() {
		value, done, err := attempt(ctx)
		results <- attemptResult[T]{value: value, done: done, err: err}
	}()

	select {
	case res := <-results:
		return res.value, res.done, res.err
	case <-ctx.Done():
		var zero T
		return zero, false, context.Cause(ctx)
	}
}

func (s *Session) announce(_ context.Context, r *run) error {
	if err := s.cue(r, presenter.CueChime); err != nil {
		return err
	}
	if err := s.show(r, msgUserDetected); err != nil {
		return err
	}
	return s.show(r, msgScanning)
}

func (s *Session) recognize(ctx context.Context, r *run) error {
	identity, found, err := poll(s, ctx, r, "recognition", s.cfg.RecognitionTimeout, func(ctx context.Context) (model.Identity, bool, error) {
		frame, err := s.deps.Camera.Capture(ctx)
		if err != nil {
			return model.Identity{}, false, err
		}
		return s.deps.Recognizer.Identify(ctx, frame)
	})
	if err != nil {
		return err
	}
	if !found {
		r.notice = msgNoUser
		r.next = flowTimeout
		return nil
	}

	if err := s.effect(r, func() error {
		r.identity = identity
		return nil
	}); err != nil {
		return err
	}
	r.log.Info("Identity recognized", "kind", identity.Kind, "name", identity.Name)

	switch identity.Kind {
	case model.IdentityResident:
		r.next = flowCollect
	case model.IdentityCarrier:
		r.next = flowDeliver
	default:
		r.notice = msgUnrecognized
		r.next = flowDeny
	}
	return nil
}

func (s *Session) deny(_ context.Context, r *run) error {
	if err := s.transition(r, StateDenied); err != nil {
		return err
	}
	if err := s.indicate(r, presenter.IndicatorDenied); err != nil {
		return err
	}
	if err := s.cue(r, presenter.CueDeny); err != nil {
		return err
	}
	r.outcome = OutcomeDenied
	return s.show(r, r.notice)
}

func (s *Session) timeout(_ context.Context, r *run) error {
	if err := s.transition(r, StateTimedOut); err != nil {
		return err
	}
	r.outcome = OutcomeTimedOut
	return s.show(r, r.notice)
}

func (s *Session) lookupPackages(_ context.Context, r *run) error {
	if err := s.transition(r, StateCollectingPackage); err != nil {
		return err
	}

	name := r.identity.Name
	user := s.deps.Directory.Classify(name)
	switch user.Role {
	case model.RoleResident:
		r.resolved = user
	case model.RoleUnregistered:
		return apperrors.Configuration(fmt.Sprintf("recognized resident %q is not in the directory", name), apperrors.UnknownUser(name))
	default:
		return apperrors.Configuration(fmt.Sprintf("recognized resident %q is registered as %s", name, user.Role), nil)
	}

	lockers := s.deps.Registry.LockersFor(user.Tag)
	if err := s.indicate(r, presenter.IndicatorAccepted); err != nil {
		return err
	}
	if len(lockers) == 0 {
		r.outcome = OutcomeNoPackages
		if err := s.show(r, msgNoPackages(user.Name)); err != nil {
			return err
		}
		return errStop
	}

	return s.effect(r, func() error {
		r.lockers = lockers
		return nil
	})
}

func (s *Session) openForPickup(ctx context.Context, r *run) error {
	if err := s.show(r, msgCollect(r.resolved.Name, r.lockers)); err != nil {
		return err
	}
	for _, id := range r.lockers {
		if err := s.effect(r, func() error {
			r.activeLocker = id
			return nil
		}); err != nil {
			return err
		}
		if err := s.deps.Actuator.Open(ctx, id); err != nil {
			return err
		}
		if err := s.effect(r, func() error {
			return s.deps.Registry.Release(id)
		}); err != nil {
			return err
		}
	}
	return s.effect(r, func() error {
		r.activeLocker = 0
		return nil
	})
}

func (s *Session) notifyPickup(ctx context.Context, r *run) error {
	r.outcome = OutcomePickedUp
	if s.send(ctx, r, r.resolved, func(to string) notify.Notification {
		return notify.Pickup(r.resolved.Name, to, r.lockers)
	}) {
		return s.show(r, msgNotified(r.resolved.Name))
	}
	return nil
}

func (s *Session) scanTag(ctx context.Context, r *run) error {
	if err := s.transition(r, StateAwaitingTagScan); err != nil {
		return err
	}
	if err := s.indicate(r, presenter.IndicatorAccepted); err != nil {
		return err
	}
	if err := s.show(r, msgScanningTag); err != nil {
		return err
	}

	tag, found, err := poll(s, ctx, r, "tag-scan", s.cfg.TagScanTimeout, func(ctx context.Context) (string, bool, error) {
		frame, err := s.deps.Camera.Capture(ctx)
		if err != nil {
			return "", false, err
		}
		return s.deps.Scanner.Scan(ctx, frame)
	})
	if err != nil {
		return err
	}
	if !found {
		r.notice = msgNoTag
		r.next = flowTimeout
		return errStop
	}

	r.log.Info("Tag scanned", "tag", tag)
	return s.effect(r, func() error {
		r.pendingTag = tag
		return nil
	})
}

// resolveTag accepts only tags owned by a resident. Anything else is denied
// before a locker is touched.
func (s *Session) resolveTag(_ context.Context, r *run) error {
	user := s.deps.Directory.Classify(r.pendingTag)
	switch {
	case user.Role == model.RoleResident && user.Tag == sanitizer.Tag(r.pendingTag):
		r.resolved = user
		return nil
	case user.Role == model.RoleCarrier:
		r.log.Warn("Scanned tag names a carrier", "tag", r.pendingTag)
	default:
		r.log.Warn("Scanned tag is not registered to a resident", "tag", r.pendingTag)
	}
	r.notice = msgUnknownTag
	r.next = flowDeny
	return errStop
}

func (s *Session) allocate(_ context.Context, r *run) error {
	if err := s.transition(r, StateAllocatingLocker); err != nil {
		return err
	}

	var alloc eviction.Allocation
	err := s.effect(r, func() error {
		var err error
		alloc, err = s.deps.Policy.Allocate(s.deps.Registry, r.pendingTag, s.deps.Clock.Now())
		if err != nil {
			return err
		}
		r.activeLocker = alloc.Locker
		r.lockers = []int{alloc.Locker}
		r.evicted = alloc.Evicted
		return nil
	})
	if errors.Is(err, eviction.ErrNoLockerAvailable) {
		r.log.Info("Delivery refused, no locker available", "error", err)
		r.outcome = OutcomeNoLockerAvailable
		if err := s.indicate(r, presenter.IndicatorDenied); err != nil {
			return err
		}
		if err := s.show(r, msgNoLocker); err != nil {
			return err
		}
		return errStop
	}
	if err != nil {
		return err
	}

	if alloc.Evicted == nil {
		r.log.Info("Locker allocated", "locker", alloc.Locker)
		return s.show(r, msgPlace(alloc.Locker))
	}

	metrics.RecordEviction()
	r.log.Info("Locker reclaimed", "locker", alloc.Locker, "prior_tag", alloc.Evicted.OccupantTag, "occupied_since", alloc.Evicted.OccupiedSince)
	if err := s.show(r, msgEvicted(alloc.Locker)); err != nil {
		return err
	}
	s.notifyExpiration(r, *alloc.Evicted)
	return nil
}

func (s *Session) notifyExpiration(r *run, prior model.Locker) {
	owner, ok := s.deps.Directory.ByTag(prior.OccupantTag)
	if !ok {
		r.log.Warn("Displaced package has no registered owner", "locker", prior.ID, "tag", prior.OccupantTag)
		return
	}
	s.send(r.ctx, r, owner, func(to string) notify.Notification {
		return notify.Expiration(owner.Name, to, prior.ID)
	})
}

// openForDelivery opens the allocated locker. If the command cannot be
// sent the locker is released again, unless the session was aborted in the
// meantime.
func (s *Session) openForDelivery(ctx context.Context, r *run) error {
	id := r.activeLocker
	err := s.deps.Actuator.Open(ctx, id)
	if err == nil {
		return s.current(r)
	}
	return s.effect(r, func() error {
		if relErr := s.deps.Registry.Release(id); relErr != nil {
			r.log.Error("Failed to release locker after open failure", "locker", id, "error", relErr)
		}
		return err
	})
}

func (s *Session) awaitClose(ctx context.Context, r *run) error {
	idle := s.deps.Clock.After(s.cfg.CarrierIdleTimeout)
	if err := s.transition(r, StateAwaitingManualClose); err != nil {
		return err
	}

	select {
	case <-r.closeCh:
		r.log.Info("Close confirmed", "locker", r.activeLocker)
	case <-idle:
		r.log.Info("Carrier idle, closing locker", "locker", r.activeLocker)
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *Session) closeLocker(ctx context.Context, r *run) error {
	if err := s.show(r, msgClosing(r.activeLocker)); err != nil {
		return err
	}
	if err := s.deps.Actuator.Close(ctx, r.activeLocker); err != nil {
		return err
	}
	return s.current(r)
}

func (s *Session) notifyDelivery(ctx context.Context, r *run) error {
	r.outcome = OutcomeDelivered
	s.send(ctx, r, r.resolved, func(to string) notify.Notification {
		return notify.Delivery(r.resolved.Name, to, r.activeLocker)
	})
	return nil
}

// send delivers a notification to user. Failures are logged and reported
// as false; they never end the session.
func (s *Session) send(ctx context.Context, r *run, user model.RegisteredUser, build func(to string) notify.Notification) bool {
	if !s.live(r) {
		return false
	}
	to, err := s.deps.Directory.NotificationTarget(user)
	if err != nil {
		r.log.Warn("No notification target", "user", user.Name, "error", err)
		return false
	}

	n := build(to)
	n.SessionID = r.id
	if err := s.deps.Notifier.Send(ctx, n); err != nil {
		r.log.Warn("Notification failed", "kind", n.Kind, "to", to, "error", apperrors.NotificationFailure(err))
		return false
	}
	r.log.Info("Notification sent", "kind", n.Kind, "to", to)
	return true
}

func isConfigurationError(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeConfiguration)
}
