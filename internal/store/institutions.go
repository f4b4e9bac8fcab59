package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/denemetakip/backend/internal/model"
)

// InstitutionStore persists the top-level tenant records.
type InstitutionStore struct {
	col *mongo.Collection
}

// Get returns one institution by id.
func (i *InstitutionStore) Get(ctx context.Context, id string) (*model.Institution, error) {
	queryCtx, cancel := withTimeout(ctx)
	defer cancel()

	var institution model.Institution
	err := i.col.FindOne(queryCtx, bson.M{"_id": id}).Decode(&institution)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get institution: %w", err)
	}

	return &institution, nil
}

// Create inserts a new institution with a generated id.
func (i *InstitutionStore) Create(ctx context.Context, name, adminID string) (*model.Institution, error) {
	now := time.Now()
	institution := model.Institution{
		ID:        uuid.NewString(),
		Name:      name,
		AdminID:   adminID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	insertCtx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := i.col.InsertOne(insertCtx, institution); err != nil {
		return nil, fmt.Errorf("create institution: %w", err)
	}
	return &institution, nil
}
