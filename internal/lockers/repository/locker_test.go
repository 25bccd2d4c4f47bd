package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartstorage/internal/lockers/registry"
	"smartstorage/pkg/client"
	"smartstorage/pkg/config"
	"smartstorage/pkg/logger"
	"smartstorage/pkg/model"
)

type memoryRepository struct {
	mu      sync.Mutex
	records map[int]model.Locker
	saveErr error
	findErr error
}

func newMemoryRepository(records ...model.Locker) *memoryRepository {
	m := &memoryRepository{records: map[int]model.Locker{}}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return m
}

func (m *memoryRepository) FindAll(context.Context) ([]model.Locker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := make([]model.Locker, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryRepository) Save(_ context.Context, l model.Locker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[l.ID] = l
	return nil
}

// blockingRepository holds every Save until release is closed.
type blockingRepository struct {
	*memoryRepository
	release chan struct{}
}

func (b *blockingRepository) Save(ctx context.Context, l model.Locker) error {
	<-b.release
	return b.memoryRepository.Save(ctx, l)
}

func seed() []model.Locker {
	return []model.Locker{{ID: 1}, {ID: 2}, {ID: 3}}
}

func TestRestore(t *testing.T) {
	since := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	repo := newMemoryRepository(
		model.Locker{ID: 2, Status: model.LockerOccupied, OccupantTag: "3", OccupiedSince: since},
		model.Locker{ID: 9, Status: model.LockerOccupied, OccupantTag: "5", OccupiedSince: since},
	)
	reg, err := registry.New(seed())
	require.NoError(t, err)

	require.NoError(t, Restore(context.Background(), repo, reg, logger.Discard()))

	assert.Equal(t, []int{2}, reg.LockersFor("3"))
	assert.Empty(t, reg.LockersFor("5"))
	assert.Equal(t, 3, reg.Len())
}

func TestRestore_FindError(t *testing.T) {
	repo := newMemoryRepository()
	repo.findErr = errors.New("server selection timeout")
	reg, err := registry.New(seed())
	require.NoError(t, err)

	assert.Error(t, Restore(context.Background(), repo, reg, logger.Discard()))
}

func TestWriter_SavesLatestStatePerLocker(t *testing.T) {
	repo := newMemoryRepository()
	reg, err := registry.New(seed())
	require.NoError(t, err)
	w := NewWriter(repo, logger.Discard())
	reg.OnChange(w.Observe)

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, reg.Occupy(1, "3", now))
	require.NoError(t, reg.Occupy(2, "5", now))
	require.NoError(t, reg.Release(1))
	assert.Equal(t, 2, w.Pending())

	w.Flush(context.Background())

	assert.Zero(t, w.Pending())
	assert.Len(t, repo.records, 2)
	assert.Equal(t, model.Locker{ID: 1, Status: model.LockerAvailable}, repo.records[1])
	assert.Equal(t, "5", repo.records[2].OccupantTag)
}

func TestWriter_ObserveDoesNotWaitForStore(t *testing.T) {
	repo := &blockingRepository{memoryRepository: newMemoryRepository(), release: make(chan struct{})}
	reg, err := registry.New(seed())
	require.NoError(t, err)
	w := NewWriter(repo, logger.Discard())
	reg.OnChange(w.Observe)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	mutated := make(chan struct{})
	go func() {
		defer close(mutated)
		now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		_ = reg.Occupy(1, "3", now)
		_ = reg.Occupy(2, "5", now)
		_ = reg.Occupy(3, "7", now)
	}()
	select {
	case <-mutated:
	case <-time.After(time.Second):
		t.Fatal("registry mutation waited on the store")
	}

	close(repo.release)
	cancel()
	<-done

	records, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestWriter_SaveErrorKeepsRegistry(t *testing.T) {
	repo := newMemoryRepository()
	repo.saveErr = errors.New("not primary")
	reg, err := registry.New(seed())
	require.NoError(t, err)
	w := NewWriter(repo, logger.Discard())
	reg.OnChange(w.Observe)

	require.NoError(t, reg.Occupy(3, "7", time.Now()))
	w.Flush(context.Background())

	assert.Equal(t, []int{3}, reg.LockersFor("7"))
	assert.Zero(t, w.Pending())
}

// TestMongoLockerRepository runs against a live MongoDB when MONGO_TEST_URI
// is set.
func TestMongoLockerRepository(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	cfg := &config.Config{
		MongoURI:          uri,
		MongoDatabaseName: "smartstorage_test",
		MongoConnTimeout:  10 * time.Second,
		MongoOpTimeout:    5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		Log:               logger.Discard(),
		Client:            client.NewClient(),
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	coll := cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName)
	require.NoError(t, coll.Drop(context.Background()))

	repo := NewMongoLockerRepository(cfg)
	since := time.Date(2024, 3, 1, 9, 0, 0, 123456789, time.UTC)

	require.NoError(t, repo.Save(context.Background(), model.Locker{ID: 4, Status: model.LockerOccupied, OccupantTag: "3", OccupiedSince: since}))
	require.NoError(t, repo.Save(context.Background(), model.Locker{ID: 1, Status: model.LockerAvailable}))
	require.NoError(t, repo.Save(context.Background(), model.Locker{ID: 4, Status: model.LockerOccupied, OccupantTag: "5", OccupiedSince: since}))

	records, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].ID)
	assert.Equal(t, "5", records[1].OccupantTag)
	assert.True(t, records[1].OccupiedSince.Equal(since.Truncate(time.Millisecond)))
}
