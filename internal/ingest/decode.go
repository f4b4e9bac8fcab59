package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/denemetakip/backend/internal/model"
)

// decode.go extracts student identity and exam-result fields from a single
// data row. Decoding never fails: malformed cells degrade to "field absent"
// so one bad cell cannot void an otherwise valid row. Required-field checks
// are the orchestrator's job.

// DecodedStudent holds the identity fields found in one row. Either field may
// be empty when the row lacks a mapped, non-blank cell for it.
type DecodedStudent struct {
	Name          string
	StudentNumber string
}

// DecodedResult holds the exam-result fields found in one row. HasDate is
// false when no mapped cell parsed as a date.
type DecodedResult struct {
	ExamDate time.Time
	HasDate  bool
	ExamName string
	Scores   []model.SubjectScore
}

// DecodeStudent applies the identity mappings to a row. Blank cells are
// skipped so a later blank mapping cannot erase an already-set field.
func DecodeStudent(row []string, mappings []model.ColumnMapping) DecodedStudent {
	var student DecodedStudent

	for _, m := range mappings {
		value, ok := cellAt(row, m.Column)
		if !ok {
			continue
		}
		switch m.Field {
		case model.FieldStudentName:
			student.Name = value
		case model.FieldStudentNumber:
			student.StudentNumber = value
		}
	}

	return student
}

// DecodeResult applies the exam mappings to a row. Subject scores accumulate
// into per-subject records in the order subjects are first encountered in the
// mapping list; non-numeric score cells and unparsable dates are dropped.
func DecodeResult(row []string, mappings []model.ColumnMapping) DecodedResult {
	var result DecodedResult

	bySubject := make(map[string]*model.SubjectScore)
	var order []string

	working := func(subject string) *model.SubjectScore {
		if rec, ok := bySubject[subject]; ok {
			return rec
		}
		rec := &model.SubjectScore{Subject: subject}
		bySubject[subject] = rec
		order = append(order, subject)
		return rec
	}

	for _, m := range mappings {
		value, ok := cellAt(row, m.Column)
		if !ok {
			continue
		}

		switch m.Field {
		case model.FieldSubjectScore:
			if m.Subject == "" {
				continue
			}
			if score, ok := parseScore(value); ok {
				working(m.Subject).Score = score
			}

		case model.FieldTopicScore:
			if m.Subject == "" || m.Topic == "" {
				continue
			}
			if score, ok := parseScore(value); ok {
				rec := working(m.Subject)
				rec.Topics = append(rec.Topics, model.TopicScore{Topic: m.Topic, Score: score})
			}

		case model.FieldExamDate:
			if t, ok := parseDate(value); ok {
				result.ExamDate = t
				result.HasDate = true
			}

		case model.FieldExamName:
			result.ExamName = value
		}
	}

	result.Scores = make([]model.SubjectScore, 0, len(order))
	for _, subject := range order {
		result.Scores = append(result.Scores, *bySubject[subject])
	}

	return result
}

// cellAt fetches the trimmed cell for a column reference. The second return
// is false for out-of-range columns and blank cells.
func cellAt(row []string, column string) (string, bool) {
	idx := ColumnToIndex(column)
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	value := strings.TrimSpace(row[idx])
	if value == "" {
		return "", false
	}
	return value, true
}

// parseScore parses a numeric cell. Scores must be finite; anything else is
// dropped rather than corrupting the record.
func parseScore(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Date layouts split by year format so 2-digit years can be pivoted.
// Spreadsheet libraries render dates in a handful of shapes depending on the
// cell format; cover the common Turkish, ISO, and US renderings.
var (
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"02.01.2006", "2.1.2006",
		"01/02/2006", "1/2/2006",
		"2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00",
	}
	twoDigitYearLayouts = []string{
		"01-02-06", "1/2/06", "01/02/06", "02.01.06",
	}
)

// twoDigitYearPivot: 2-digit years more than this many years in the future
// are assumed to belong to the previous century.
const twoDigitYearPivot = 20

func parseDate(s string) (time.Time, bool) {
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivot := time.Now().Year() + twoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() > pivot {
			t = t.AddDate(-100, 0, 0)
		}
		return t, true
	}

	return time.Time{}, false
}
