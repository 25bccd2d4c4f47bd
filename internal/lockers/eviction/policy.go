// Package eviction decides which locker a new delivery goes into when the
// bank is full: the locker holding the oldest package, if it has been there
// longer than the threshold.
package eviction

import (
	"fmt"
	"time"

	"smartstorage/internal/lockers/registry"
	"smartstorage/pkg/model"
)

type Policy struct {
	Threshold time.Duration
}

func New(threshold time.Duration) Policy {
	return Policy{Threshold: threshold}
}

// Decision is an authorized eviction.
type Decision struct {
	Locker int
	Prior  model.Locker
	Age    time.Duration
}

// Choose picks the oldest occupied locker, ties broken by lowest id. The
// eviction is authorized only if its age is strictly greater than the
// threshold.
func (p Policy) Choose(lockers []model.Locker, now time.Time) (Decision, error) {
	var (
		best  model.Locker
		found bool
	)
	for _, l := range lockers {
		if !l.Occupied() {
			return Decision{}, fmt.Errorf("%w: locker %d is available", ErrNotFull, l.ID)
		}
		if !found || l.Age(now) > best.Age(now) || (l.Age(now) == best.Age(now) && l.ID < best.ID) {
			best, found = l, true
		}
	}
	if !found {
		return Decision{}, ErrNoLockerAvailable
	}

	age := best.Age(now)
	if age <= p.Threshold {
		return Decision{}, fmt.Errorf("%w: oldest package in locker %d is %s old", ErrNoLockerAvailable, best.ID, age.Truncate(time.Second))
	}
	return Decision{Locker: best.ID, Prior: best, Age: age}, nil
}

// Allocation is where a new package went and, if a locker was reclaimed,
// what it held before.
type Allocation struct {
	Locker  int
	Evicted *model.Locker
}

// Allocate occupies the first available locker for tag, or the locker
// chosen by Choose when the bank is full. The decision and the occupy run
// under one registry lock so no other allocation can target the same
// locker.
func (p Policy) Allocate(reg *registry.Registry, tag string, now time.Time) (Allocation, error) {
	var alloc Allocation
	err := reg.Update(func(tx *registry.Txn) error {
		if id, ok := tx.FirstAvailable(); ok {
			alloc.Locker = id
			return tx.Occupy(id, tag, now)
		}

		decision, err := p.Choose(tx.Snapshot(), now)
		if err != nil {
			return err
		}
		prior := decision.Prior
		alloc.Locker = decision.Locker
		alloc.Evicted = &prior
		return tx.Occupy(decision.Locker, tag, now)
	})
	if err != nil {
		return Allocation{}, err
	}
	return alloc, nil
}
