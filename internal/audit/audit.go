// Package audit stores a record of every finished access session.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smartstorage/pkg/config"
	mongodb "smartstorage/pkg/db/mongo"
	"smartstorage/pkg/logger"
	"smartstorage/pkg/model"
)

const (
	CollectionName = "Sessions"
)

type SessionRepository interface {
	Record(ctx context.Context, rec model.SessionRecord) error
	Recent(ctx context.Context, limit int) ([]model.SessionRecord, error)
}

type mongoSessionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSessionRepository(cfg *config.Config) SessionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSessionRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoSessionRepository) Record(ctx context.Context, rec model.SessionRecord) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	rec.StartedAt = rec.StartedAt.UTC().Truncate(time.Millisecond)
	rec.EndedAt = rec.EndedAt.UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to record session %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns the latest sessions, newest first.
func (r *mongoSessionRepository) Recent(ctx context.Context, limit int) ([]model.SessionRecord, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "ended_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var records []model.SessionRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return records, nil
}

// LogRecorder writes session records to the log. Used when MongoDB is
// disabled.
type LogRecorder struct {
	log *logger.Logger
}

func NewLogRecorder(log *logger.Logger) *LogRecorder {
	return &LogRecorder{log: log.Component("audit")}
}

func (l *LogRecorder) Record(_ context.Context, rec model.SessionRecord) error {
	l.log.Info("Session record",
		"session_id", rec.ID,
		"outcome", rec.Outcome,
		"identity", rec.Identity,
		"tag", rec.Tag,
		"lockers", rec.Lockers,
		"duration", rec.EndedAt.Sub(rec.StartedAt),
	)
	return nil
}
