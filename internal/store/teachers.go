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

// TeacherStore persists teacher records.
type TeacherStore struct {
	col *mongo.Collection
}

// GetAll returns all teachers of an institution.
func (t *TeacherStore) GetAll(ctx context.Context, institutionID string) ([]model.Teacher, error) {
	queryCtx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := t.col.Find(queryCtx, bson.M{"institution_id": institutionID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("query teachers: %w", err)
	}
	defer cursor.Close(queryCtx)

	teachers := []model.Teacher{}
	for cursor.Next(queryCtx) {
		var teacher model.Teacher
		if err := cursor.Decode(&teacher); err != nil {
			continue
		}
		teachers = append(teachers, teacher)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate teachers: %w", err)
	}

	return teachers, nil
}

// Get returns one teacher by id within an institution.
func (t *TeacherStore) Get(ctx context.Context, institutionID, id string) (*model.Teacher, error) {
	queryCtx, cancel := withTimeout(ctx)
	defer cancel()

	var teacher model.Teacher
	err := t.col.FindOne(queryCtx, bson.M{"_id": id, "institution_id": institutionID}).Decode(&teacher)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}

	return &teacher, nil
}

// Create inserts a new teacher with a generated id.
func (t *TeacherStore) Create(ctx context.Context, institutionID string, teacher model.Teacher) (*model.Teacher, error) {
	now := time.Now()
	teacher.ID = uuid.NewString()
	teacher.InstitutionID = institutionID
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	if teacher.AssignedSubjects == nil {
		teacher.AssignedSubjects = []string{}
	}

	insertCtx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := t.col.InsertOne(insertCtx, teacher); err != nil {
		return nil, fmt.Errorf("create teacher: %w", err)
	}
	return &teacher, nil
}

// Update replaces a teacher's mutable fields and returns the updated
// document. Institution and creation time are never touched.
func (t *TeacherStore) Update(ctx context.Context, institutionID, id string, teacher model.Teacher) (*model.Teacher, error) {
	if teacher.AssignedSubjects == nil {
		teacher.AssignedSubjects = []string{}
	}

	updateCtx, cancel := withTimeout(ctx)
	defer cancel()

	var updated model.Teacher
	err := t.col.FindOneAndUpdate(updateCtx,
		bson.M{"_id": id, "institution_id": institutionID},
		bson.M{"$set": bson.M{
			"name":              teacher.Name,
			"email":             teacher.Email,
			"role":              teacher.Role,
			"assigned_subjects": teacher.AssignedSubjects,
			"updated_at":        time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update teacher: %w", err)
	}

	return &updated, nil
}

// Delete removes a teacher.
func (t *TeacherStore) Delete(ctx context.Context, institutionID, id string) error {
	deleteCtx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := t.col.DeleteOne(deleteCtx, bson.M{"_id": id, "institution_id": institutionID})
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
