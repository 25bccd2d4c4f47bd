package eviction

import (
	"testing"
	"time"

	"smartstorage/internal/lockers/registry"
	"smartstorage/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

const threshold = 50 * time.Second

// fullBank returns seven occupied lockers; ages[i] is the age of locker i+1.
func fullBank(t *testing.T, ages ...time.Duration) *registry.Registry {
	t.Helper()
	seed := make([]model.Locker, len(ages))
	for i, age := range ages {
		seed[i] = model.Locker{
			ID:            i + 1,
			OccupantTag:   string(rune('a' + i)),
			OccupiedSince: now.Add(-age),
		}
	}
	r, err := registry.New(seed)
	require.NoError(t, err)
	return r
}

func TestChoose(t *testing.T) {
	p := New(threshold)

	tests := []struct {
		name    string
		ages    []time.Duration
		want    int
		wantErr error
	}{
		{
			name: "single locker over threshold",
			ages: []time.Duration{10 * time.Second, 20 * time.Second, 55 * time.Second, 1 * time.Second},
			want: 3,
		},
		{
			name: "oldest wins among several over threshold",
			ages: []time.Duration{60 * time.Second, 90 * time.Second, 70 * time.Second},
			want: 2,
		},
		{
			name: "ties resolve to lowest id",
			ages: []time.Duration{10 * time.Second, 80 * time.Second, 80 * time.Second},
			want: 2,
		},
		{
			name:    "all below threshold",
			ages:    []time.Duration{10 * time.Second, 49 * time.Second},
			wantErr: ErrNoLockerAvailable,
		},
		{
			name:    "exactly at threshold is not enough",
			ages:    []time.Duration{threshold, threshold},
			wantErr: ErrNoLockerAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fullBank(t, tt.ages...)
			d, err := p.Choose(r.Snapshot(), now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Locker)
			assert.Equal(t, tt.ages[tt.want-1], d.Age)
		})
	}
}

func TestChoose_RequiresFullBank(t *testing.T) {
	lockers := []model.Locker{
		{ID: 1, Status: model.LockerOccupied, OccupantTag: "a", OccupiedSince: now.Add(-time.Hour)},
		{ID: 2, Status: model.LockerAvailable},
	}
	_, err := New(threshold).Choose(lockers, now)
	assert.ErrorIs(t, err, ErrNotFull)
}

func TestAllocate_PrefersFirstAvailable(t *testing.T) {
	r, err := registry.New([]model.Locker{
		{ID: 1, OccupantTag: "x", OccupiedSince: now.Add(-time.Hour)},
		{ID: 2},
		{ID: 3},
	})
	require.NoError(t, err)

	alloc, err := New(threshold).Allocate(r, "kai", now)
	require.NoError(t, err)
	assert.Equal(t, 2, alloc.Locker)
	assert.Nil(t, alloc.Evicted)
	assert.Equal(t, []int{2}, r.LockersFor("kai"))
}

func TestAllocate_EvictsLocker3(t *testing.T) {
	r := fullBank(t,
		10*time.Second, 20*time.Second, 55*time.Second, 30*time.Second,
		40*time.Second, 5*time.Second, 49*time.Second,
	)

	alloc, err := New(threshold).Allocate(r, "kai", now)
	require.NoError(t, err)
	assert.Equal(t, 3, alloc.Locker)
	require.NotNil(t, alloc.Evicted)
	assert.Equal(t, "c", alloc.Evicted.OccupantTag)

	l, _ := r.Get(3)
	assert.Equal(t, "kai", l.OccupantTag)
	assert.Equal(t, now, l.OccupiedSince)
	for _, other := range []int{1, 2, 4, 5, 6, 7} {
		ol, _ := r.Get(other)
		assert.NotEqual(t, "kai", ol.OccupantTag, "locker %d must not change", other)
	}
}

func TestAllocate_RefusesWhenNothingExpired(t *testing.T) {
	r := fullBank(t, 10*time.Second, 20*time.Second, 30*time.Second)
	before := r.Snapshot()
	var changes int
	r.OnChange(func(model.Locker) { changes++ })

	_, err := New(threshold).Allocate(r, "kai", now)
	assert.ErrorIs(t, err, ErrNoLockerAvailable)
	assert.Equal(t, before, r.Snapshot())
	assert.Zero(t, changes)
}
