package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/denemetakip/backend/internal/model"
)

// StudentStore persists student identity records. The natural key is
// (institution_id, student_number); uniqueness is enforced by the
// reconciliation lookup in GetOrCreate, not by a database constraint, so
// reconciliation is serialized per institution with an in-process mutex.
// A cross-process race on a brand-new student number remains possible.
type StudentStore struct {
	col *mongo.Collection

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStudentStore creates a StudentStore over the given collection.
func NewStudentStore(col *mongo.Collection) *StudentStore {
	return &StudentStore{
		col:   col,
		locks: make(map[string]*sync.Mutex),
	}
}

// GetAll returns all students of an institution.
func (s *StudentStore) GetAll(ctx context.Context, institutionID string) ([]model.Student, error) {
	queryCtx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := s.col.Find(queryCtx, bson.M{"institution_id": institutionID},
		options.Find().SetSort(bson.D{{Key: "student_number", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer cursor.Close(queryCtx)

	students := []model.Student{}
	for cursor.Next(queryCtx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		students = append(students, docToStudent(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}

	return students, nil
}

// Get returns one student by id within an institution.
func (s *StudentStore) Get(ctx context.Context, institutionID, id string) (*model.Student, error) {
	queryCtx, cancel := withTimeout(ctx)
	defer cancel()

	var doc bson.M
	err := s.col.FindOne(queryCtx, bson.M{"_id": id, "institution_id": institutionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	student := docToStudent(doc)
	return &student, nil
}

// FindByNumber looks a student up by the natural key.
func (s *StudentStore) FindByNumber(ctx context.Context, institutionID, studentNumber string) (*model.Student, error) {
	queryCtx, cancel := withTimeout(ctx)
	defer cancel()

	var doc bson.M
	err := s.col.FindOne(queryCtx, bson.M{
		"institution_id": institutionID,
		"student_number": studentNumber,
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find student by number: %w", err)
	}

	student := docToStudent(doc)
	return &student, nil
}

// Create inserts a new student with a generated id.
func (s *StudentStore) Create(ctx context.Context, institutionID, studentNumber, name string) (*model.Student, error) {
	now := time.Now()
	student := model.Student{
		ID:            uuid.NewString(),
		InstitutionID: institutionID,
		Name:          name,
		StudentNumber: studentNumber,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	insertCtx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.col.InsertOne(insertCtx, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return &student, nil
}

// GetOrCreate reconciles a student identity: an existing student with the
// given number is returned unchanged (first-write-wins, the stored name is
// never updated); otherwise a new student is created. The second return
// reports whether a student was created. The lookup-then-create sequence is
// serialized per institution.
func (s *StudentStore) GetOrCreate(ctx context.Context, institutionID, studentNumber, name string) (*model.Student, bool, error) {
	lock := s.institutionLock(institutionID)
	lock.Lock()
	defer lock.Unlock()

	student, err := s.FindByNumber(ctx, institutionID, studentNumber)
	if err == nil {
		return student, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	student, err = s.Create(ctx, institutionID, studentNumber, name)
	if err != nil {
		return nil, false, err
	}
	return student, true, nil
}

func (s *StudentStore) institutionLock(institutionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[institutionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[institutionID] = lock
	}
	return lock
}

func docToStudent(doc bson.M) model.Student {
	return model.Student{
		ID:            getString(doc, "_id"),
		InstitutionID: getString(doc, "institution_id"),
		Name:          getString(doc, "name"),
		StudentNumber: getString(doc, "student_number"),
		CreatedAt:     getTime(doc, "created_at"),
		UpdatedAt:     getTime(doc, "updated_at"),
	}
}
