// Package repository persists locker occupancy in MongoDB so the registry
// survives restarts.
package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smartstorage/internal/lockers/registry"
	"smartstorage/pkg/config"
	mongodb "smartstorage/pkg/db/mongo"
	"smartstorage/pkg/logger"
	"smartstorage/pkg/model"
)

const (
	CollectionName = "Lockers"
)

type LockerRepository interface {
	FindAll(ctx context.Context) ([]model.Locker, error)
	Save(ctx context.Context, locker model.Locker) error
}

type mongoLockerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLockerRepository(cfg *config.Config) LockerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLockerRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoLockerRepository) FindAll(ctx context.Context) ([]model.Locker, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find lockers: %w", err)
	}
	defer cursor.Close(ctx)

	var lockers []model.Locker
	if err = cursor.All(ctx, &lockers); err != nil {
		return nil, fmt.Errorf("failed to decode lockers: %w", err)
	}
	return lockers, nil
}

// Save replaces the stored record for the locker, inserting it if absent.
func (r *mongoLockerRepository) Save(ctx context.Context, locker model.Locker) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	if locker.Occupied() {
		locker.OccupiedSince = locker.OccupiedSince.UTC().Truncate(time.Millisecond)
	}
	filter := bson.M{"_id": locker.ID}
	_, err := r.collection.ReplaceOne(ctx, filter, locker, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save locker %d: %w", locker.ID, err)
	}
	return nil
}

// Restore loads persisted records into reg. Lockers no longer in the site
// definition are logged and skipped.
func Restore(ctx context.Context, repo LockerRepository, reg *registry.Registry, log *logger.Logger) error {
	records, err := repo.FindAll(ctx)
	if err != nil {
		return err
	}
	if ignored := reg.Restore(records); len(ignored) > 0 {
		log.Warn("Ignoring persisted lockers missing from site definition", "lockers", ignored)
	}
	log.Info("Restored locker state", "records", len(records))
	return nil
}

// Writer persists registry changes on its own goroutine, so a registry
// mutation never waits on MongoDB. Pending changes are coalesced per
// locker and the latest state wins. A failed save is logged; the in-memory
// registry stays authoritative.
type Writer struct {
	repo LockerRepository
	log  *logger.Logger

	mu      sync.Mutex
	pending map[int]model.Locker
	wake    chan struct{}
}

func NewWriter(repo LockerRepository, log *logger.Logger) *Writer {
	return &Writer{
		repo:    repo,
		log:     log.Component("locker-store"),
		pending: make(map[int]model.Locker),
		wake:    make(chan struct{}, 1),
	}
}

// Observe queues l for saving. It is a registry.ChangeFunc and never
// blocks.
func (w *Writer) Observe(l model.Locker) {
	w.mu.Lock()
	w.pending[l.ID] = l
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run saves queued changes until ctx is done, then flushes what is left.
func (w *Writer) Run(ctx context.Context) error {
	w.log.Info("Locker writer started")
	for {
		select {
		case <-w.wake:
			w.Flush(ctx)
		case <-ctx.Done():
			w.Flush(context.WithoutCancel(ctx))
			w.log.Info("Locker writer stopped")
			return nil
		}
	}
}

// Flush saves every queued change in locker order.
func (w *Writer) Flush(ctx context.Context) {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[int]model.Locker, len(batch))
	w.mu.Unlock()

	for _, id := range slices.Sorted(maps.Keys(batch)) {
		if err := w.repo.Save(ctx, batch[id]); err != nil {
			w.log.Error("Failed to persist locker", "locker", id, "error", err)
		}
	}
}

// Pending reports how many lockers are waiting to be saved.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
