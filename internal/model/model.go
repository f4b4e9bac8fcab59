// Package model defines the domain entities shared by the store, ingestion,
// and web layers. All entities are scoped under an institution; no
// cross-institution reference is valid.
package model

import "time"

// TeacherRole controls what a teacher can see in analytics.
type TeacherRole string

const (
	RoleAdmin    TeacherRole = "admin"
	RoleGuidance TeacherRole = "guidance"
	RoleTeacher  TeacherRole = "teacher"
)

// Institution is the top-level tenant.
type Institution struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	AdminID   string    `bson:"admin_id" json:"adminId"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Teacher belongs to one institution.
type Teacher struct {
	ID               string      `bson:"_id" json:"id"`
	InstitutionID    string      `bson:"institution_id" json:"institutionId"`
	Name             string      `bson:"name" json:"name"`
	Email            string      `bson:"email" json:"email"`
	Role             TeacherRole `bson:"role" json:"role"`
	AssignedSubjects []string    `bson:"assigned_subjects" json:"assignedSubjects"`
	CreatedAt        time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time   `bson:"updated_at" json:"updatedAt"`
}

// Student is an identity record. StudentNumber is the natural key, unique
// within an institution; uniqueness is enforced by the reconciliation lookup
// in the store, not by a database constraint.
type Student struct {
	ID            string    `bson:"_id" json:"id"`
	InstitutionID string    `bson:"institution_id" json:"institutionId"`
	Name          string    `bson:"name" json:"name"`
	StudentNumber string    `bson:"student_number" json:"studentNumber"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

// TopicScore is one topic's score inside a subject.
type TopicScore struct {
	Topic string  `bson:"topic" json:"topic"`
	Score float64 `bson:"score" json:"score"`
}

// SubjectScore is one subject's score within an exam result. Subject is an
// open vocabulary, not an enum.
type SubjectScore struct {
	Subject string       `bson:"subject" json:"subject"`
	Score   float64      `bson:"score" json:"score"`
	Topics  []TopicScore `bson:"topics,omitempty" json:"topics,omitempty"`
}

// ExamResult records one exam attempt for one student. Write-once: created by
// the ingestion pipeline or the API, never mutated afterwards.
type ExamResult struct {
	ID            string         `bson:"_id" json:"id"`
	InstitutionID string         `bson:"institution_id" json:"institutionId"`
	StudentID     string         `bson:"student_id" json:"studentId"`
	ExamDate      time.Time      `bson:"exam_date" json:"examDate"`
	ExamName      string         `bson:"exam_name,omitempty" json:"examName,omitempty"`
	Scores        []SubjectScore `bson:"scores" json:"scores"`
	CreatedAt     time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `bson:"updated_at" json:"updatedAt"`
}

// MappingField is the semantic target of a spreadsheet column.
type MappingField string

const (
	FieldStudentName   MappingField = "studentName"
	FieldStudentNumber MappingField = "studentNumber"
	FieldExamDate      MappingField = "examDate"
	FieldExamName      MappingField = "examName"
	FieldSubjectScore  MappingField = "subjectScore"
	FieldTopicScore    MappingField = "topicScore"
)

// ColumnMapping binds one spreadsheet column (letter reference, "A" = first)
// to a semantic field. Subject is required for subjectScore and topicScore;
// Topic is required for topicScore.
type ColumnMapping struct {
	Column  string       `bson:"column" json:"column"`
	Field   MappingField `bson:"field" json:"field"`
	Subject string       `bson:"subject,omitempty" json:"subject,omitempty"`
	Topic   string       `bson:"topic,omitempty" json:"topic,omitempty"`
}

// ExamTemplate is a named, reusable column-mapping definition for a repeated
// spreadsheet format. Mapping order matters for display only; decoding applies
// each mapping independently.
type ExamTemplate struct {
	ID            string          `bson:"_id" json:"id"`
	InstitutionID string          `bson:"institution_id" json:"institutionId"`
	Name          string          `bson:"name" json:"name"`
	Mappings      []ColumnMapping `bson:"mappings" json:"mappings"`
	CreatedAt     time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `bson:"updated_at" json:"updatedAt"`
}

// ResultFilter narrows an exam-result listing.
type ResultFilter struct {
	StudentID string
	Subjects  []string
}
