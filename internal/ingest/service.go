// Package ingest implements the bulk spreadsheet ingestion pipeline: column
// mapping resolution, row decoding, student reconciliation, and exam-result
// materialization. The defining property is row-level failure isolation: one
// malformed row among thousands must not abort the batch, and the caller gets
// a per-row diagnostic for everything that was skipped.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/denemetakip/backend/internal/logging"
	"github.com/denemetakip/backend/internal/model"
	"github.com/denemetakip/backend/internal/store"
)

// StudentStore reconciles student identities. GetOrCreate must look up by
// (institution, studentNumber) before creating, must not update the name of
// an existing student, and reports whether a student was created.
type StudentStore interface {
	GetOrCreate(ctx context.Context, institutionID, studentNumber, name string) (*model.Student, bool, error)
}

// ResultStore persists exam results.
type ResultStore interface {
	Create(ctx context.Context, institutionID string, result model.ExamResult) (*model.ExamResult, error)
}

// TemplateStore loads stored column-mapping templates. Get returns
// store.ErrNotFound on a miss.
type TemplateStore interface {
	Get(ctx context.Context, institutionID, id string) (*model.ExamTemplate, error)
}

// Defaults fills fields a row failed to provide. Locale-specific, so
// injectable alongside the keyword table.
type Defaults struct {
	StudentName string
	ExamName    string
}

// TurkishDefaults are the placeholders used by the Turkish-locale deployment.
var TurkishDefaults = Defaults{
	StudentName: "İsimsiz",
	ExamName:    "Deneme Sınavı",
}

// Result summarizes one ingestion run. StudentsProcessed counts distinct
// students newly created from the file, so re-ingesting a sheet reports 0
// even though its rows still yield results. ResultsCreated counts persisted
// exam results.
type Result struct {
	StudentsProcessed int      `json:"studentsProcessed"`
	ResultsCreated    int      `json:"resultsCreated"`
	Errors            []string `json:"errors"`
}

// Service drives the ingestion pipeline. Rows are processed strictly
// sequentially within one invocation; concurrent invocations share only the
// underlying store.
type Service struct {
	students  StudentStore
	results   ResultStore
	templates TemplateStore
	resolver  *Resolver
	defaults  Defaults
	limiter   *Limiter
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithResolver overrides the default keyword-based mapping resolver.
func WithResolver(r *Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithDefaults overrides the locale placeholders.
func WithDefaults(d Defaults) Option {
	return func(s *Service) { s.defaults = d }
}

// WithLimiter caps concurrent ingestion runs.
func WithLimiter(l *Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an ingestion service over the given stores.
func NewService(students StudentStore, results ResultStore, templates TemplateStore, opts ...Option) *Service {
	s := &Service{
		students:  students,
		results:   results,
		templates: templates,
		resolver:  NewResolver(nil),
		defaults:  TurkishDefaults,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessFile ingests the spreadsheet at path for one institution. It fails
// only when the file cannot be opened or parsed; per-row problems are
// aggregated into the returned Result.
func (s *Service) ProcessFile(ctx context.Context, institutionID, path, templateID string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	return s.processWorkbook(ctx, institutionID, f, templateID)
}

// ProcessReader ingests a spreadsheet from an in-flight upload.
func (s *Service) ProcessReader(ctx context.Context, institutionID string, r io.Reader, templateID string) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	return s.processWorkbook(ctx, institutionID, f, templateID)
}

func (s *Service) processWorkbook(ctx context.Context, institutionID string, f *excelize.File, templateID string) (*Result, error) {
	defer func() {
		if err := f.Close(); err != nil {
			logging.FromContext(ctx).Warn("close spreadsheet", "error", err)
		}
	}()

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.limiter.Release()
	}

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("spreadsheet contains no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	return s.processRows(ctx, institutionID, rows, templateID)
}

// processRows runs the pipeline over an already-parsed sheet: first row is
// the header, the rest are data. Split out so tests can drive it without
// spreadsheet files.
func (s *Service) processRows(ctx context.Context, institutionID string, rows [][]string, templateID string) (*Result, error) {
	logger := logging.WithFields(ctx, "institution_id", institutionID, "rows", len(rows))

	template, err := s.loadTemplate(ctx, institutionID, templateID)
	if err != nil {
		return nil, err
	}

	var header []string
	var data [][]string
	if len(rows) > 0 {
		header = rows[0]
		data = rows[1:]
	}

	mappings := s.resolver.Resolve(header, template)

	result := &Result{Errors: []string{}}

	// Per-invocation seen set: a student appearing on several rows counts
	// once, and state never leaks across concurrent runs.
	seen := make(map[string]struct{})

	for i, row := range data {
		rowNum := i + 2 // 1-indexed, header is row 1

		if isEmptyRow(row) {
			continue
		}

		student := DecodeStudent(row, mappings)
		if student.Name == "" && student.StudentNumber == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: missing student name or number", rowNum))
			continue
		}

		number := student.StudentNumber
		if number == "" {
			// Generated fallback so the row still yields a student when the
			// sheet truly has no number column.
			number = fmt.Sprintf("NUM-%d-%d", s.now().UnixMilli(), i)
		}
		name := student.Name
		if name == "" {
			name = s.defaults.StudentName
		}

		if err := s.ingestRow(ctx, institutionID, row, mappings, number, name, seen, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	logger.Info("ingestion complete",
		"students_processed", result.StudentsProcessed,
		"results_created", result.ResultsCreated,
		"row_errors", len(result.Errors),
	)

	return result, nil
}

// loadTemplate fetches the stored template when an id was supplied. A miss
// silently falls back to inferred mapping; any other store failure is fatal.
func (s *Service) loadTemplate(ctx context.Context, institutionID, templateID string) (*model.ExamTemplate, error) {
	if templateID == "" {
		return nil, nil
	}
	template, err := s.templates.Get(ctx, institutionID, templateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load template %s: %w", templateID, err)
	}
	return template, nil
}

// ingestRow reconciles the student and persists the row's exam result. Any
// error is reported back to processRows as a row-level diagnostic.
func (s *Service) ingestRow(ctx context.Context, institutionID string, row []string, mappings []model.ColumnMapping, number, name string, seen map[string]struct{}, result *Result) error {
	student, created, err := s.students.GetOrCreate(ctx, institutionID, number, name)
	if err != nil {
		return fmt.Errorf("reconcile student %s: %w", number, err)
	}

	if _, ok := seen[student.ID]; !ok {
		seen[student.ID] = struct{}{}
		if created {
			result.StudentsProcessed++
		}
	}

	decoded := DecodeResult(row, mappings)
	if len(decoded.Scores) == 0 {
		// A row carrying only identity columns legitimately creates no result.
		return nil
	}

	examDate := decoded.ExamDate
	if !decoded.HasDate {
		examDate = s.now()
	}
	examName := decoded.ExamName
	if examName == "" {
		examName = s.defaults.ExamName
	}

	if _, err := s.results.Create(ctx, institutionID, model.ExamResult{
		StudentID: student.ID,
		ExamDate:  examDate,
		ExamName:  examName,
		Scores:    decoded.Scores,
	}); err != nil {
		return fmt.Errorf("create exam result: %w", err)
	}

	result.ResultsCreated++
	return nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
