// Package analytics computes aggregate views over an institution's exam
// results. Aggregation happens in-process over the decoded results; the
// result volume per institution is small enough that a store-side pipeline
// is not worth the coupling.
package analytics

import (
	"context"
	"sort"

	"github.com/denemetakip/backend/internal/model"
)

// ResultLister is the slice of the result store analytics reads from.
type ResultLister interface {
	GetAll(ctx context.Context, institutionID string, filter model.ResultFilter) ([]model.ExamResult, error)
}

// SubjectAverage is the aggregate for one subject across all results.
type SubjectAverage struct {
	Subject string         `json:"subject"`
	Average float64        `json:"average"`
	Count   int            `json:"count"`
	Topics  []TopicAverage `json:"topics,omitempty"`
}

// TopicAverage is the aggregate for one topic within a subject.
type TopicAverage struct {
	Topic   string  `json:"topic"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// StudentAverage is the overall average for one student across all their
// subject scores.
type StudentAverage struct {
	StudentID string  `json:"studentId"`
	Average   float64 `json:"average"`
	Count     int     `json:"count"`
}

// Report is the full analytics response for one institution.
type Report struct {
	Subjects []SubjectAverage `json:"subjects"`
	Students []StudentAverage `json:"students"`
	Results  int              `json:"results"`
}

// Service computes analytics reports.
type Service struct {
	results ResultLister
}

// NewService creates an analytics Service over the given result store.
func NewService(results ResultLister) *Service {
	return &Service{results: results}
}

// Report aggregates an institution's results into per-subject, per-topic, and
// per-student averages. Subjects narrows the aggregation; viewer controls the
// effective subject set when no explicit filter is given.
//
// Admins and guidance counselors see every subject unless they ask for fewer.
// Plain teachers with no explicit filter are narrowed to their assigned
// subjects; a teacher with no assignments sees everything, matching the
// institution-wide view they get before subjects are assigned.
func (s *Service) Report(ctx context.Context, institutionID string, viewer *model.Teacher, subjects []string) (*Report, error) {
	effective := effectiveSubjects(viewer, subjects)

	results, err := s.results.GetAll(ctx, institutionID, model.ResultFilter{Subjects: effective})
	if err != nil {
		return nil, err
	}

	return aggregate(results, effective), nil
}

func effectiveSubjects(viewer *model.Teacher, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	if viewer != nil && viewer.Role == model.RoleTeacher && len(viewer.AssignedSubjects) > 0 {
		return viewer.AssignedSubjects
	}
	return nil
}

func aggregate(results []model.ExamResult, subjects []string) *Report {
	type topicAcc struct {
		sum   float64
		count int
	}
	type subjectAcc struct {
		sum    float64
		count  int
		topics map[string]*topicAcc
		order  []string
	}
	type studentAcc struct {
		sum   float64
		count int
	}

	allowed := make(map[string]bool, len(subjects))
	for _, subject := range subjects {
		allowed[subject] = true
	}

	bySubject := make(map[string]*subjectAcc)
	subjectOrder := []string{}
	byStudent := make(map[string]*studentAcc)
	studentOrder := []string{}

	for _, result := range results {
		for _, score := range result.Scores {
			if len(allowed) > 0 && !allowed[score.Subject] {
				continue
			}

			sub, ok := bySubject[score.Subject]
			if !ok {
				sub = &subjectAcc{topics: make(map[string]*topicAcc)}
				bySubject[score.Subject] = sub
				subjectOrder = append(subjectOrder, score.Subject)
			}
			sub.sum += score.Score
			sub.count++

			for _, topic := range score.Topics {
				acc, ok := sub.topics[topic.Topic]
				if !ok {
					acc = &topicAcc{}
					sub.topics[topic.Topic] = acc
					sub.order = append(sub.order, topic.Topic)
				}
				acc.sum += topic.Score
				acc.count++
			}

			stu, ok := byStudent[result.StudentID]
			if !ok {
				stu = &studentAcc{}
				byStudent[result.StudentID] = stu
				studentOrder = append(studentOrder, result.StudentID)
			}
			stu.sum += score.Score
			stu.count++
		}
	}

	report := &Report{
		Subjects: make([]SubjectAverage, 0, len(subjectOrder)),
		Students: make([]StudentAverage, 0, len(studentOrder)),
		Results:  len(results),
	}

	sort.Strings(subjectOrder)
	for _, subject := range subjectOrder {
		sub := bySubject[subject]
		avg := SubjectAverage{
			Subject: subject,
			Average: sub.sum / float64(sub.count),
			Count:   sub.count,
		}
		sort.Strings(sub.order)
		for _, topic := range sub.order {
			acc := sub.topics[topic]
			avg.Topics = append(avg.Topics, TopicAverage{
				Topic:   topic,
				Average: acc.sum / float64(acc.count),
				Count:   acc.count,
			})
		}
		report.Subjects = append(report.Subjects, avg)
	}

	sort.Strings(studentOrder)
	for _, studentID := range studentOrder {
		stu := byStudent[studentID]
		report.Students = append(report.Students, StudentAverage{
			StudentID: studentID,
			Average:   stu.sum / float64(stu.count),
			Count:     stu.count,
		})
	}

	return report
}
