package ingest

import (
	"testing"

	"github.com/denemetakip/backend/internal/model"
)

func TestResolve_InferredFromHeader(t *testing.T) {
	r := NewResolver(nil)

	header := []string{"Öğrenci İsim", "Öğrenci No", "Matematik", "Türkçe"}
	mappings := r.Resolve(header, nil)

	want := []model.ColumnMapping{
		{Column: "A", Field: model.FieldStudentName},
		{Column: "B", Field: model.FieldStudentNumber},
		{Column: "C", Field: model.FieldSubjectScore, Subject: "Matematik"},
		{Column: "D", Field: model.FieldSubjectScore, Subject: "Türkçe"},
	}

	if len(mappings) != len(want) {
		t.Fatalf("got %d mappings, want %d: %+v", len(mappings), len(want), mappings)
	}
	for i := range want {
		if mappings[i] != want[i] {
			t.Errorf("mapping[%d] = %+v, want %+v", i, mappings[i], want[i])
		}
	}
}

func TestResolve_TurkishDottedCapitalI(t *testing.T) {
	r := NewResolver(nil)

	// "İsim" must fold to "isim" under Turkish casing rules; plain ToLower
	// produces a combining mark that breaks the match.
	mappings := r.Resolve([]string{"İsim"}, nil)

	if len(mappings) != 1 {
		t.Fatalf("got %d mappings, want 1: %+v", len(mappings), mappings)
	}
	if mappings[0].Field != model.FieldStudentName {
		t.Errorf("field = %q, want %q", mappings[0].Field, model.FieldStudentName)
	}
}

func TestResolve_ExamDateBeatsSubject(t *testing.T) {
	r := NewResolver(nil)

	mappings := r.Resolve([]string{"Sınav Tarihi"}, nil)

	if len(mappings) != 1 {
		t.Fatalf("got %d mappings, want 1: %+v", len(mappings), mappings)
	}
	if mappings[0].Field != model.FieldExamDate {
		t.Errorf("field = %q, want %q", mappings[0].Field, model.FieldExamDate)
	}
}

func TestResolve_FallbackWhenNothingMatches(t *testing.T) {
	r := NewResolver(nil)

	for _, header := range [][]string{
		nil,
		{},
		{"", "  "},
		{"xyz", "qqq"},
	} {
		mappings := r.Resolve(header, nil)
		if len(mappings) != 4 {
			t.Fatalf("header %v: got %d mappings, want 4 defaults", header, len(mappings))
		}
		if mappings[0].Column != "A" || mappings[0].Field != model.FieldStudentName {
			t.Errorf("header %v: first default = %+v", header, mappings[0])
		}
		if mappings[3].Column != "D" || mappings[3].Subject != "Türkçe" {
			t.Errorf("header %v: last default = %+v", header, mappings[3])
		}
	}
}

func TestResolve_TemplateWinsVerbatim(t *testing.T) {
	r := NewResolver(nil)

	template := &model.ExamTemplate{
		Mappings: []model.ColumnMapping{
			{Column: "F", Field: model.FieldStudentNumber},
			{Column: "G", Field: model.FieldSubjectScore, Subject: "Fizik"},
		},
	}

	// Header would infer a completely different mapping; the template must
	// be used untouched.
	mappings := r.Resolve([]string{"İsim", "No", "Matematik"}, template)

	if len(mappings) != 2 {
		t.Fatalf("got %d mappings, want 2: %+v", len(mappings), mappings)
	}
	if mappings[0] != template.Mappings[0] || mappings[1] != template.Mappings[1] {
		t.Errorf("template mappings were altered: %+v", mappings)
	}
}

func TestResolve_CustomKeywordTable(t *testing.T) {
	rules := []KeywordRule{
		{Tokens: []string{"student"}, Field: model.FieldStudentName},
		{Tokens: []string{"score"}, Field: model.FieldSubjectScore, Subject: "Science"},
	}
	r := NewResolver(rules)

	mappings := r.Resolve([]string{"Student", "Score"}, nil)

	if len(mappings) != 2 {
		t.Fatalf("got %d mappings, want 2: %+v", len(mappings), mappings)
	}
	if mappings[1].Subject != "Science" {
		t.Errorf("subject = %q, want %q", mappings[1].Subject, "Science")
	}
}
