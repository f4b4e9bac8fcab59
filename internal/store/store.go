// Package store implements persistence over MongoDB. Every entity is scoped
// to an institution; all queries filter on institution_id so no operation can
// cross tenant boundaries.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/denemetakip/backend/internal/config"
)

// ErrNotFound is returned when a lookup matches no document. Callers use it
// to distinguish a miss from a store failure.
var ErrNotFound = errors.New("not found")

// queryTimeout bounds individual store operations.
const queryTimeout = 10 * time.Second

// Store aggregates the per-collection stores over one database handle.
type Store struct {
	client *mongo.Client

	Institutions *InstitutionStore
	Teachers     *TeacherStore
	Students     *StudentStore
	Results      *ResultStore
	Templates    *TemplateStore
}

// Connect establishes the MongoDB connection and returns a ready Store.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(uint64(cfg.MaxPoolSize)).
		SetMinPoolSize(uint64(cfg.MinPoolSize)).
		SetMaxConnIdleTime(cfg.MaxIdleTime).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return New(client.Database(cfg.Database)), nil
}

// New builds a Store over an existing database handle.
func New(db *mongo.Database) *Store {
	return &Store{
		client:       db.Client(),
		Institutions: &InstitutionStore{col: db.Collection("institutions")},
		Teachers:     &TeacherStore{col: db.Collection("teachers")},
		Students:     NewStudentStore(db.Collection("students")),
		Results:      &ResultStore{col: db.Collection("exam_results")},
		Templates:    &TemplateStore{col: db.Collection("exam_templates")},
	}
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(disconnectCtx); err != nil {
		return fmt.Errorf("disconnect from MongoDB: %w", err)
	}
	return nil
}

// withTimeout derives a bounded context for one store operation.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}
