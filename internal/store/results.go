package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/denemetakip/backend/internal/model"
)

// ResultStore persists exam results. Results are write-once: created by the
// ingestion pipeline or the API and never mutated afterwards.
type ResultStore struct {
	col *mongo.Collection
}

// GetAll returns an institution's exam results, optionally narrowed by
// student and subjects. The subject filter is applied in-process over the
// decoded score lists; matching on nested array members in the store would
// still return the full documents, so there is nothing to push down.
func (r *ResultStore) GetAll(ctx context.Context, institutionID string, filter model.ResultFilter) ([]model.ExamResult, error) {
	query := bson.M{"institution_id": institutionID}
	if filter.StudentID != "" {
		query["student_id"] = filter.StudentID
	}

	queryCtx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.col.Find(queryCtx, query,
		options.Find().SetSort(bson.D{{Key: "exam_date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("query exam results: %w", err)
	}
	defer cursor.Close(queryCtx)

	results := []model.ExamResult{}
	for cursor.Next(queryCtx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		result := docToResult(doc)
		if len(filter.Subjects) > 0 && !hasAnySubject(result, filter.Subjects) {
			continue
		}
		results = append(results, result)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate exam results: %w", err)
	}

	return results, nil
}

// Get returns one exam result by id within an institution.
func (r *ResultStore) Get(ctx context.Context, institutionID, id string) (*model.ExamResult, error) {
	queryCtx, cancel := withTimeout(ctx)
	defer cancel()

	var doc bson.M
	err := r.col.FindOne(queryCtx, bson.M{"_id": id, "institution_id": institutionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get exam result: %w", err)
	}

	result := docToResult(doc)
	return &result, nil
}

// Create inserts a new exam result with a generated id. The institution id
// on the stored document always comes from the scope argument, never from
// the payload.
func (r *ResultStore) Create(ctx context.Context, institutionID string, result model.ExamResult) (*model.ExamResult, error) {
	now := time.Now()
	result.ID = uuid.NewString()
	result.InstitutionID = institutionID
	result.CreatedAt = now
	result.UpdatedAt = now
	if result.Scores == nil {
		result.Scores = []model.SubjectScore{}
	}

	insertCtx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := r.col.InsertOne(insertCtx, result); err != nil {
		return nil, fmt.Errorf("create exam result: %w", err)
	}
	return &result, nil
}

// CreateBatch inserts several exam results in one round trip.
func (r *ResultStore) CreateBatch(ctx context.Context, institutionID string, results []model.ExamResult) ([]model.ExamResult, error) {
	if len(results) == 0 {
		return []model.ExamResult{}, nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(results))
	created := make([]model.ExamResult, 0, len(results))
	for _, result := range results {
		result.ID = uuid.NewString()
		result.InstitutionID = institutionID
		result.CreatedAt = now
		result.UpdatedAt = now
		if result.Scores == nil {
			result.Scores = []model.SubjectScore{}
		}
		docs = append(docs, result)
		created = append(created, result)
	}

	insertCtx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := r.col.InsertMany(insertCtx, docs); err != nil {
		return nil, fmt.Errorf("create exam results: %w", err)
	}
	return created, nil
}

func hasAnySubject(result model.ExamResult, subjects []string) bool {
	for _, score := range result.Scores {
		for _, subject := range subjects {
			if score.Subject == subject {
				return true
			}
		}
	}
	return false
}

func docToResult(doc bson.M) model.ExamResult {
	return model.ExamResult{
		ID:            getString(doc, "_id"),
		InstitutionID: getString(doc, "institution_id"),
		StudentID:     getString(doc, "student_id"),
		ExamDate:      getTime(doc, "exam_date"),
		ExamName:      getString(doc, "exam_name"),
		Scores:        docToScores(doc["scores"]),
		CreatedAt:     getTime(doc, "created_at"),
		UpdatedAt:     getTime(doc, "updated_at"),
	}
}

func docToScores(value interface{}) []model.SubjectScore {
	items, ok := value.(primitive.A)
	if !ok {
		return []model.SubjectScore{}
	}

	scores := make([]model.SubjectScore, 0, len(items))
	for _, item := range items {
		entry, ok := asDoc(item)
		if !ok {
			continue
		}
		scores = append(scores, model.SubjectScore{
			Subject: getString(entry, "subject"),
			Score:   getFloat(entry["score"]),
			Topics:  docToTopics(entry["topics"]),
		})
	}
	return scores
}

func docToTopics(value interface{}) []model.TopicScore {
	items, ok := value.(primitive.A)
	if !ok || len(items) == 0 {
		return nil
	}

	topics := make([]model.TopicScore, 0, len(items))
	for _, item := range items {
		entry, ok := asDoc(item)
		if !ok {
			continue
		}
		topics = append(topics, model.TopicScore{
			Topic: getString(entry, "topic"),
			Score: getFloat(entry["score"]),
		})
	}
	return topics
}

func asDoc(value interface{}) (bson.M, bool) {
	switch v := value.(type) {
	case bson.M:
		return v, true
	case bson.D:
		return v.Map(), true
	case map[string]interface{}:
		return bson.M(v), true
	default:
		return nil, false
	}
}
