// Package registry owns the fixed set of lockers and their occupancy.
//
// The registry is safe for concurrent use. Mutations that must be decided
// and applied atomically (allocation with eviction) go through Update.
package registry

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"smartstorage/pkg/model"
)

// ChangeFunc observes a locker after it was mutated. Observers run after
// the registry lock is released, in mutation order.
type ChangeFunc func(model.Locker)

type Registry struct {
	mu        sync.RWMutex
	lockers   map[int]*model.Locker
	ids       []int
	observers []ChangeFunc
}

// New seeds the registry. Lockers may be pre-occupied.
func New(seed []model.Locker) (*Registry, error) {
	r := &Registry{lockers: make(map[int]*model.Locker, len(seed))}
	for _, l := range seed {
		if l.ID <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrUnknownLocker, l.ID)
		}
		if _, exists := r.lockers[l.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateLocker, l.ID)
		}
		l = normalize(l)
		r.lockers[l.ID] = &l
		r.ids = append(r.ids, l.ID)
	}
	slices.Sort(r.ids)
	return r, nil
}

func normalize(l model.Locker) model.Locker {
	if l.OccupantTag == "" {
		return model.Locker{ID: l.ID, Status: model.LockerAvailable}
	}
	l.Status = model.LockerOccupied
	return l
}

// OnChange registers an observer for every subsequent mutation.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Restore overwrites the state of known lockers with persisted records.
// Records for lockers not in the seed are ignored and returned.
func (r *Registry) Restore(records []model.Locker) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ignored []int
	for _, rec := range records {
		if _, ok := r.lockers[rec.ID]; !ok {
			ignored = append(ignored, rec.ID)
			continue
		}
		rec = normalize(rec)
		r.lockers[rec.ID] = &rec
	}
	return ignored
}

func (r *Registry) AllOccupied() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.txn().AllOccupied()
}

func (r *Registry) FirstAvailable() (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.txn().FirstAvailable()
}

func (r *Registry) LockersFor(tag string) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.txn().LockersFor(tag)
}

func (r *Registry) AgeOf(id int, now time.Time) (time.Duration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.txn().AgeOf(id, now)
}

func (r *Registry) Get(id int) (model.Locker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lockers[id]
	if !ok {
		return model.Locker{}, false
	}
	return *l, true
}

// Snapshot returns copies of every locker in ascending id order.
func (r *Registry) Snapshot() []model.Locker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.txn().Snapshot()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}

// Occupy assigns the locker to tag. An occupied locker is overwritten.
func (r *Registry) Occupy(id int, tag string, now time.Time) error {
	return r.Update(func(tx *Txn) error {
		return tx.Occupy(id, tag, now)
	})
}

// Release makes the locker available. Releasing an available locker is a
// no-op.
func (r *Registry) Release(id int) error {
	return r.Update(func(tx *Txn) error {
		return tx.Release(id)
	})
}

// Update runs fn with exclusive access to the registry. Mutations made
// through tx are visible to observers once fn returns, even if fn fails
// after mutating.
func (r *Registry) Update(fn func(tx *Txn) error) error {
	r.mu.Lock()
	tx := r.txn()
	err := fn(tx)
	observers := slices.Clone(r.observers)
	r.mu.Unlock()

	for _, changed := range tx.changed {
		for _, observe := range observers {
			observe(changed)
		}
	}
	return err
}

func (r *Registry) txn() *Txn {
	return &Txn{r: r}
}

// Txn is a view of the registry held under its lock. It must not be used
// after the Update callback returns.
type Txn struct {
	r       *Registry
	changed []model.Locker
}

func (tx *Txn) AllOccupied() bool {
	for _, id := range tx.r.ids {
		if !tx.r.lockers[id].Occupied() {
			return false
		}
	}
	return true
}

func (tx *Txn) FirstAvailable() (int, bool) {
	for _, id := range tx.r.ids {
		if !tx.r.lockers[id].Occupied() {
			return id, true
		}
	}
	return 0, false
}

func (tx *Txn) LockersFor(tag string) []int {
	var ids []int
	if tag == "" {
		return ids
	}
	for _, id := range tx.r.ids {
		l := tx.r.lockers[id]
		if l.Occupied() && l.OccupantTag == tag {
			ids = append(ids, id)
		}
	}
	return ids
}

func (tx *Txn) AgeOf(id int, now time.Time) (time.Duration, error) {
	l, ok := tx.r.lockers[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownLocker, id)
	}
	if !l.Occupied() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidState, id)
	}
	return now.Sub(l.OccupiedSince), nil
}

func (tx *Txn) Snapshot() []model.Locker {
	out := make([]model.Locker, 0, len(tx.r.ids))
	for _, id := range tx.r.ids {
		out = append(out, *tx.r.lockers[id])
	}
	return out
}

func (tx *Txn) Occupy(id int, tag string, now time.Time) error {
	if tag == "" {
		return ErrEmptyTag
	}
	l, ok := tx.r.lockers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownLocker, id)
	}
	l.Status = model.LockerOccupied
	l.OccupantTag = tag
	l.OccupiedSince = now
	tx.changed = append(tx.changed, *l)
	return nil
}

func (tx *Txn) Release(id int) error {
	l, ok := tx.r.lockers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownLocker, id)
	}
	if !l.Occupied() {
		return nil
	}
	*l = model.Locker{ID: id, Status: model.LockerAvailable}
	tx.changed = append(tx.changed, *l)
	return nil
}
