package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/denemetakip/backend/internal/model"
	"github.com/denemetakip/backend/internal/store"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeStudentStore struct {
	students map[string]*model.Student // keyed by institution|number
	nextID   int
	failFor  string // student number that errors on reconciliation
}

func newFakeStudentStore() *fakeStudentStore {
	return &fakeStudentStore{students: make(map[string]*model.Student)}
}

func (f *fakeStudentStore) GetOrCreate(_ context.Context, institutionID, number, name string) (*model.Student, bool, error) {
	if number == f.failFor {
		return nil, false, errors.New("store unavailable")
	}
	key := institutionID + "|" + number
	if s, ok := f.students[key]; ok {
		return s, false, nil
	}
	f.nextID++
	s := &model.Student{
		ID:            "student-" + itoa(f.nextID),
		InstitutionID: institutionID,
		Name:          name,
		StudentNumber: number,
	}
	f.students[key] = s
	return s, true, nil
}

type fakeResultStore struct {
	created []model.ExamResult
	failErr error
}

func (f *fakeResultStore) Create(_ context.Context, institutionID string, result model.ExamResult) (*model.ExamResult, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	result.InstitutionID = institutionID
	f.created = append(f.created, result)
	return &result, nil
}

type fakeTemplateStore struct {
	templates map[string]*model.ExamTemplate
	failErr   error
}

func (f *fakeTemplateStore) Get(_ context.Context, _, id string) (*model.ExamTemplate, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	if t, ok := f.templates[id]; ok {
		return t, nil
	}
	return nil, store.ErrNotFound
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func newTestService(students *fakeStudentStore, results *fakeResultStore, templates *fakeTemplateStore, opts ...Option) *Service {
	if students == nil {
		students = newFakeStudentStore()
	}
	if results == nil {
		results = &fakeResultStore{}
	}
	if templates == nil {
		templates = &fakeTemplateStore{}
	}
	return NewService(students, results, templates, opts...)
}

// ============================================================================
// Orchestrator tests
// ============================================================================

func TestProcessRows_Scenario(t *testing.T) {
	students := newFakeStudentStore()
	results := &fakeResultStore{}
	svc := newTestService(students, results, nil)

	rows := [][]string{
		{"İsim", "No", "Matematik", "Türkçe"},
		{"Ali Veli", "101", "85", "not-a-number"},
	}

	result, err := svc.processRows(context.Background(), "inst-1", rows, "")
	if err != nil {
		t.Fatalf("processRows error = %v", err)
	}

	if result.StudentsProcessed != 1 {
		t.Errorf("StudentsProcessed = %d, want 1", result.StudentsProcessed)
	}
	if result.ResultsCreated != 1 {
		t.Errorf("ResultsCreated = %d, want 1", result.ResultsCreated)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want none", result.Errors)
	}

	if len(results.created) != 1 {
		t.Fatalf("created %d results, want 1", len(results.created))
	}
	created := results.created[0]
	if len(created.Scores) != 1 {
		t.Fatalf("result has %d scores, want 1 (Türkçe dropped)", len(created.Scores))
	}
	if created.Scores[0].Subject != "Matematik" || created.Scores[0].Score != 85 {
		t.Errorf("score = %+v, want Matematik 85", created.Scores[0])
	}

	student := students.students["inst-1|101"]
	if student == nil {
		t.Fatal("student 101 was not created")
	}
	if student.Name != "Ali Veli" {
		t.Errorf("student name = %q, want %q", student.Name, "Ali Veli")
	}
}

func TestProcessRows_ReingestCreatesNoStudents(t *testing.T) {
	students := newFakeStudentStore()
	results := &fakeResultStore{}
	svc := newTestService(students, results, nil)

	rows := [][]string{
		{"İsim", "No", "Matematik"},
		{"Ali Veli", "101", "85"},
	}

	if _, err := svc.processRows(context.Background(), "inst-1", rows, ""); err != nil {
		t.Fatalf("first ingest error = %v", err)
	}

	second, err := svc.processRows(context.Background(), "inst-1", rows, "")
	if err != nil {
		t.Fatalf("second ingest error = %v", err)
	}

	if second.StudentsProcessed != 0 {
		t.Errorf("StudentsProcessed on re-ingest = %d, want 0", second.StudentsProcessed)
	}
	if second.ResultsCreated != 1 {
		t.Errorf("ResultsCreated on re-ingest = %d, want 1 (no result dedup)", second.ResultsCreated)
	}
	if len(results.created) != 2 {
		t.Errorf("total results = %d, want 2", len(results.created))
	}
}

func TestProcessRows_RowIsolation(t *testing.T) {
	students := newFakeStudentStore()
	students.failFor = "102"
	results := &fakeResultStore{}
	svc := newTestService(students, results, nil)

	rows := [][]string{
		{"İsim", "No", "Matematik"},
		{"Ali Veli", "101", "85"},
		{"Ayşe Demir", "102", "90"},
		{"Mehmet Kaya", "103", "70"},
	}

	result, err := svc.processRows(context.Background(), "inst-1", rows, "")
	if err != nil {
		t.Fatalf("processRows error = %v", err)
	}

	if result.ResultsCreated != 2 {
		t.Errorf("ResultsCreated = %d, want 2", result.ResultsCreated)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[0], "Row 3:") {
		t.Errorf("error = %q, want Row 3 prefix", result.Errors[0])
	}
}

func TestProcessRows_BlankRowsSkipped(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	rows := [][]string{
		{"İsim", "No", "Matematik"},
		{"", "", ""},
		{"  ", "", "  "},
		{"Ali Veli", "101", "85"},
	}

	result, err := svc.processRows(context.Background(), "inst-1", rows, "")
	if err != nil {
		t.Fatalf("processRows error = %v", err)
	}

	if result.StudentsProcessed != 1 || result.ResultsCreated != 1 {
		t.Errorf("counters = (%d, %d), want (1, 1)", result.StudentsProcessed, result.ResultsCreated)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want none", result.Errors)
	}
}

func TestProcessRows_MissingIdentity(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	rows := [][]string{
		{"İsim", "No", "Matematik"},
		{"", "", "85"},
	}

	result, err := svc.processRows(context.Background(), "inst-1", rows, "")
	if err != nil {
		t.Fatalf("processRows error = %v", err)
	}

	if result.StudentsProcessed != 0 || result.ResultsCreated != 0 {
		t.Errorf("counters = (%d, %d), want (0, 0)", result.StudentsProcessed, result.ResultsCreated)
	}
	if len(result.Errors) != 1 || result.Errors[0] != "Row 2: missing student name or number" {
		t.Errorf("Errors = %v", result.Errors)
	}
}

func TestProcessRows_MissingNumberGetsFallback(t *testing.T) {
	students := newFakeStudentStore()
	svc := newTestService(students, nil, nil, WithClock(func() time.Time {
		return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	}))

	rows := [][]string{
		{"İsim", "Matematik"},
		{"Ali Veli", "85"},
	}

	result, err := svc.processRows(context.Background(), "inst-1", rows, "")
	if err != nil {
		t.Fatalf("processRows error = %v", err)
	}

	if result.StudentsProcessed != 1 {
		t.Fatalf("StudentsProcessed = %d, want 1", result.StudentsProcessed)
	}
	for key, s := range students.students {
		if !strings.Contains(key, "|NUM-") {
			t.Errorf("student key %q lacks generated number", key)
		}
		if s.Name != "Ali Veli" {
			t.Errorf("student name = %q", s.Name)
		}
	}
}

func TestProcessRows_MissingNameGetsPlaceholder(t *testing.T) {
	students := newFakeStudentStore()
	svc := newTestService(students, nil, nil)

	rows := [][]string{
		{"İsim", "No", "Matematik"},
		{"", "101", "85"},
	}

	if _, err := svc.processRows(context.Background(), "inst-1", rows, ""); err != nil {
		t.Fatalf("processRows error = %v", err)
	}

	student := students.students["inst-1|101"]
	if student == nil {
		t.Fatal("student 101 was not created")
	}
	if student.Name != "İsimsiz" {
		t.Errorf("student name = %q, want placeholder", student.Name)
	}
}

func TestProcessRows_IdentityOnlyRowCreatesNoResult(t *testing.T) {
	results := &fakeResultStore{}
	svc := newTestService(nil, results, nil)

	rows := [][]string{
		{"İsim", "No"},
		{"Ali Veli", "101"},
	}

	result, err := svc.processRows(context.Background(), "inst-1", rows, "")
	if err != nil {
		t.Fatalf("processRows error = %v", err)
	}

	if result.StudentsProcessed != 1 {
		t.Errorf("StudentsProcessed = %d, want 1", result.StudentsProcessed)
	}
	if result.ResultsCreated != 0 || len(results.created) != 0 {
		t.Errorf("ResultsCreated = %d, want 0", result.ResultsCreated)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want none", result.Errors)
	}
}

func TestProcessRows_DefaultDateAndName(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	results := &fakeResultStore{}
	svc := newTestService(nil, results, nil, WithClock(func() time.Time { return now }))

	rows := [][]string{
		{"İsim", "No", "Matematik"},
		{"Ali Veli", "101", "85"},
	}

	if _, err := svc.processRows(context.Background(), "inst-1", rows, ""); err != nil {
		t.Fatalf("processRows error = %v", err)
	}

	if len(results.created) != 1 {
		t.Fatalf("created %d results, want 1", len(results.created))
	}
	created := results.created[0]
	if !created.ExamDate.Equal(now) {
		t.Errorf("ExamDate = %v, want clock time", created.ExamDate)
	}
	if created.ExamName != "Deneme Sınavı" {
		t.Errorf("ExamName = %q, want default", created.ExamName)
	}
}

func TestProcessRows_TemplateMissFallsBack(t *testing.T) {
	templates := &fakeTemplateStore{}
	results := &fakeResultStore{}
	svc := newTestService(nil, results, templates)

	rows := [][]string{
		{"İsim", "No", "Matematik"},
		{"Ali Veli", "101", "85"},
	}

	result, err := svc.processRows(context.Background(), "inst-1", rows, "no-such-template")
	if err != nil {
		t.Fatalf("processRows error = %v (miss must fall back, not fail)", err)
	}
	if result.ResultsCreated != 1 {
		t.Errorf("ResultsCreated = %d, want 1", result.ResultsCreated)
	}
}

func TestProcessRows_TemplateFetchFailureIsFatal(t *testing.T) {
	templates := &fakeTemplateStore{failErr: errors.New("connection reset")}
	svc := newTestService(nil, nil, templates)

	rows := [][]string{
		{"İsim", "No", "Matematik"},
		{"Ali Veli", "101", "85"},
	}

	if _, err := svc.processRows(context.Background(), "inst-1", rows, "tpl-1"); err == nil {
		t.Fatal("expected fatal error for non-miss template failure")
	}
}

func TestProcessRows_TemplateUsedWhenPresent(t *testing.T) {
	templates := &fakeTemplateStore{templates: map[string]*model.ExamTemplate{
		"tpl-1": {
			ID: "tpl-1",
			Mappings: []model.ColumnMapping{
				{Column: "A", Field: model.FieldStudentNumber},
				{Column: "B", Field: model.FieldSubjectScore, Subject: "Fizik"},
			},
		},
	}}
	results := &fakeResultStore{}
	svc := newTestService(nil, results, templates)

	// Header would infer name/number/Matematik; the template must win.
	rows := [][]string{
		{"İsim", "No", "Matematik"},
		{"101", "55", "85"},
	}

	result, err := svc.processRows(context.Background(), "inst-1", rows, "tpl-1")
	if err != nil {
		t.Fatalf("processRows error = %v", err)
	}
	if result.ResultsCreated != 1 {
		t.Fatalf("ResultsCreated = %d, want 1", result.ResultsCreated)
	}
	if results.created[0].Scores[0].Subject != "Fizik" {
		t.Errorf("subject = %q, want Fizik", results.created[0].Scores[0].Subject)
	}
}

func TestProcessRows_DuplicateNumberCountedOnce(t *testing.T) {
	results := &fakeResultStore{}
	svc := newTestService(nil, results, nil)

	rows := [][]string{
		{"İsim", "No", "Matematik"},
		{"Ali Veli", "101", "85"},
		{"Ali Veli", "101", "90"},
	}

	result, err := svc.processRows(context.Background(), "inst-1", rows, "")
	if err != nil {
		t.Fatalf("processRows error = %v", err)
	}

	if result.StudentsProcessed != 1 {
		t.Errorf("StudentsProcessed = %d, want 1", result.StudentsProcessed)
	}
	if result.ResultsCreated != 2 {
		t.Errorf("ResultsCreated = %d, want 2", result.ResultsCreated)
	}
	if len(results.created) == 2 && results.created[0].StudentID != results.created[1].StudentID {
		t.Errorf("results reference different students: %q vs %q",
			results.created[0].StudentID, results.created[1].StudentID)
	}
}

func TestProcessRows_EmptySheet(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	result, err := svc.processRows(context.Background(), "inst-1", nil, "")
	if err != nil {
		t.Fatalf("processRows error = %v", err)
	}
	if result.StudentsProcessed != 0 || result.ResultsCreated != 0 || len(result.Errors) != 0 {
		t.Errorf("result = %+v, want all zero", result)
	}
}
