package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/denemetakip/backend/internal/model"
)

// TemplateStore persists named column-mapping templates. Templates are
// managed by administrators and consumed read-only by the ingestion
// pipeline.
type TemplateStore struct {
	col *mongo.Collection
}

// GetAll returns all templates of an institution.
func (t *TemplateStore) GetAll(ctx context.Context, institutionID string) ([]model.ExamTemplate, error) {
	queryCtx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := t.col.Find(queryCtx, bson.M{"institution_id": institutionID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer cursor.Close(queryCtx)

	templates := []model.ExamTemplate{}
	for cursor.Next(queryCtx) {
		var template model.ExamTemplate
		if err := cursor.Decode(&template); err != nil {
			continue
		}
		templates = append(templates, template)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}

	return templates, nil
}

// Get returns one template by id within an institution.
func (t *TemplateStore) Get(ctx context.Context, institutionID, id string) (*model.ExamTemplate, error) {
	queryCtx, cancel := withTimeout(ctx)
	defer cancel()

	var template model.ExamTemplate
	err := t.col.FindOne(queryCtx, bson.M{"_id": id, "institution_id": institutionID}).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get template: %w", err)
	}

	return &template, nil
}

// Create inserts a new template with a generated id.
func (t *TemplateStore) Create(ctx context.Context, institutionID, name string, mappings []model.ColumnMapping) (*model.ExamTemplate, error) {
	if mappings == nil {
		mappings = []model.ColumnMapping{}
	}

	now := time.Now()
	template := model.ExamTemplate{
		ID:            uuid.NewString(),
		InstitutionID: institutionID,
		Name:          name,
		Mappings:      mappings,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	insertCtx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := t.col.InsertOne(insertCtx, template); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return &template, nil
}

// Update replaces a template's name and mappings and returns the updated
// document.
func (t *TemplateStore) Update(ctx context.Context, institutionID, id, name string, mappings []model.ColumnMapping) (*model.ExamTemplate, error) {
	if mappings == nil {
		mappings = []model.ColumnMapping{}
	}

	updateCtx, cancel := withTimeout(ctx)
	defer cancel()

	var template model.ExamTemplate
	err := t.col.FindOneAndUpdate(updateCtx,
		bson.M{"_id": id, "institution_id": institutionID},
		bson.M{"$set": bson.M{
			"name":       name,
			"mappings":   mappings,
			"updated_at": time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update template: %w", err)
	}

	return &template, nil
}

// Delete removes a template.
func (t *TemplateStore) Delete(ctx context.Context, institutionID, id string) error {
	deleteCtx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := t.col.DeleteOne(deleteCtx, bson.M{"_id": id, "institution_id": institutionID})
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
