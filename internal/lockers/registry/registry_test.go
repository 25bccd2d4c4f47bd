package registry

import (
	"sync"
	"testing"
	"time"

	"smartstorage/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newRegistry(t *testing.T, n int) *Registry {
	t.Helper()
	seed := make([]model.Locker, 0, n)
	for id := 1; id <= n; id++ {
		seed = append(seed, model.Locker{ID: id})
	}
	r, err := New(seed)
	require.NoError(t, err)
	return r
}

// ────────────────────────────────────────────────────────────────
// Seeding
// ────────────────────────────────────────────────────────────────

func TestNew_SeedsPreOccupiedLockers(t *testing.T) {
	r, err := New([]model.Locker{
		{ID: 3},
		{ID: 1, OccupantTag: "7", OccupiedSince: now},
		{ID: 2},
	})
	require.NoError(t, err)

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{snap[0].ID, snap[1].ID, snap[2].ID})
	assert.Equal(t, model.LockerOccupied, snap[0].Status)
	assert.Equal(t, model.LockerAvailable, snap[1].Status)
}

func TestNew_RejectsBadSeeds(t *testing.T) {
	_, err := New([]model.Locker{{ID: 1}, {ID: 1}})
	assert.ErrorIs(t, err, ErrDuplicateLocker)

	_, err = New([]model.Locker{{ID: 0}})
	assert.ErrorIs(t, err, ErrUnknownLocker)
}

// ────────────────────────────────────────────────────────────────
// Queries
// ────────────────────────────────────────────────────────────────

func TestFirstAvailable_LowestID(t *testing.T) {
	r := newRegistry(t, 3)
	require.NoError(t, r.Occupy(1, "a", now))

	id, ok := r.FirstAvailable()
	assert.True(t, ok)
	assert.Equal(t, 2, id)

	require.NoError(t, r.Occupy(2, "a", now))
	require.NoError(t, r.Occupy(3, "a", now))
	_, ok = r.FirstAvailable()
	assert.False(t, ok)
	assert.True(t, r.AllOccupied())
}

func TestLockersFor_AscendingOrder(t *testing.T) {
	r := newRegistry(t, 5)
	require.NoError(t, r.Occupy(4, "ming", now))
	require.NoError(t, r.Occupy(2, "ming", now))
	require.NoError(t, r.Occupy(3, "other", now))

	assert.Equal(t, []int{2, 4}, r.LockersFor("ming"))
	assert.Empty(t, r.LockersFor("nobody"))
	assert.Empty(t, r.LockersFor(""))
}

func TestAgeOf(t *testing.T) {
	r := newRegistry(t, 2)
	require.NoError(t, r.Occupy(1, "a", now))

	age, err := r.AgeOf(1, now.Add(55*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 55*time.Second, age)

	_, err = r.AgeOf(2, now)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = r.AgeOf(9, now)
	assert.ErrorIs(t, err, ErrUnknownLocker)
}

// ────────────────────────────────────────────────────────────────
// Mutations
// ────────────────────────────────────────────────────────────────

func TestOccupyThenRelease_RestoresObservableState(t *testing.T) {
	r := newRegistry(t, 3)
	require.NoError(t, r.Occupy(2, "seed", now))
	before := r.Snapshot()

	require.NoError(t, r.Occupy(1, "kai", now.Add(time.Minute)))
	require.NoError(t, r.Release(1))

	after := r.Snapshot()
	for i := range before {
		assert.Equal(t, before[i].Status, after[i].Status)
		assert.Equal(t, before[i].OccupantTag, after[i].OccupantTag)
	}
}

func TestOccupy_OverwritesOccupant(t *testing.T) {
	r := newRegistry(t, 1)
	require.NoError(t, r.Occupy(1, "old", now))
	require.NoError(t, r.Occupy(1, "new", now.Add(time.Hour)))

	l, ok := r.Get(1)
	require.True(t, ok)
	assert.Equal(t, "new", l.OccupantTag)
	assert.Equal(t, now.Add(time.Hour), l.OccupiedSince)
}

func TestOccupy_Errors(t *testing.T) {
	r := newRegistry(t, 1)
	assert.ErrorIs(t, r.Occupy(1, "", now), ErrEmptyTag)
	assert.ErrorIs(t, r.Occupy(2, "a", now), ErrUnknownLocker)
}

func TestRelease_AvailableIsNoop(t *testing.T) {
	r := newRegistry(t, 1)
	var calls int
	r.OnChange(func(model.Locker) { calls++ })

	require.NoError(t, r.Release(1))
	assert.Zero(t, calls)
	assert.ErrorIs(t, r.Release(5), ErrUnknownLocker)
}

func TestOnChange_CalledAfterEachMutation(t *testing.T) {
	r := newRegistry(t, 2)
	var seen []model.Locker
	r.OnChange(func(l model.Locker) { seen = append(seen, l) })

	require.NoError(t, r.Update(func(tx *Txn) error {
		if err := tx.Occupy(1, "a", now); err != nil {
			return err
		}
		return tx.Occupy(2, "b", now)
	}))
	require.NoError(t, r.Release(1))

	require.Len(t, seen, 3)
	assert.Equal(t, "a", seen[0].OccupantTag)
	assert.Equal(t, "b", seen[1].OccupantTag)
	assert.Equal(t, model.LockerAvailable, seen[2].Status)
}

func TestOnChange_ObserverMayReadRegistry(t *testing.T) {
	r := newRegistry(t, 1)
	var occupied bool
	r.OnChange(func(model.Locker) { occupied = r.AllOccupied() })

	require.NoError(t, r.Occupy(1, "a", now))
	assert.True(t, occupied)
}

func TestRestore(t *testing.T) {
	r := newRegistry(t, 2)
	ignored := r.Restore([]model.Locker{
		{ID: 2, Status: model.LockerOccupied, OccupantTag: "z", OccupiedSince: now},
		{ID: 9, Status: model.LockerOccupied, OccupantTag: "x"},
	})

	assert.Equal(t, []int{9}, ignored)
	assert.Equal(t, []int{2}, r.LockersFor("z"))
}

func TestConcurrentAccess(t *testing.T) {
	r := newRegistry(t, 7)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			id := i%7 + 1
			_ = r.Occupy(id, "t", now)
			_ = r.Release(id)
		}(i)
		go func() {
			defer wg.Done()
			_ = r.Snapshot()
			_, _ = r.FirstAvailable()
		}()
	}
	wg.Wait()
	assert.Equal(t, 7, r.Len())
}
