package ingest

import (
	"strings"
	"unicode"

	"github.com/denemetakip/backend/internal/model"
)

// mapping.go resolves which spreadsheet column feeds which semantic field.
//
// A stored template wins outright; otherwise mappings are inferred from the
// header row by keyword matching. The keyword table is injectable so other
// locales can be supported without touching the resolver logic.

// KeywordRule maps header tokens to a target field. The first rule whose
// token appears in a header cell wins; a cell never produces more than one
// mapping.
type KeywordRule struct {
	Tokens  []string
	Field   model.MappingField
	Subject string
}

// DefaultKeywordRules is the Turkish-locale keyword table, checked in order.
// Identity and exam fields come first so that e.g. a "Sınav Tarihi" header
// resolves to examDate rather than the Tarih subject.
var DefaultKeywordRules = []KeywordRule{
	{Tokens: []string{"ad", "isim", "name"}, Field: model.FieldStudentName},
	{Tokens: []string{"numara", "no", "num"}, Field: model.FieldStudentNumber},
	{Tokens: []string{"tarih", "date"}, Field: model.FieldExamDate},
	{Tokens: []string{"sınav", "sinav", "exam"}, Field: model.FieldExamName},
	{Tokens: []string{"matematik", "math"}, Field: model.FieldSubjectScore, Subject: "Matematik"},
	{Tokens: []string{"türkçe", "turkce", "turkish"}, Field: model.FieldSubjectScore, Subject: "Türkçe"},
	{Tokens: []string{"fizik", "physics"}, Field: model.FieldSubjectScore, Subject: "Fizik"},
	{Tokens: []string{"kimya", "chemistry"}, Field: model.FieldSubjectScore, Subject: "Kimya"},
	{Tokens: []string{"biyoloji", "biology"}, Field: model.FieldSubjectScore, Subject: "Biyoloji"},
	{Tokens: []string{"coğrafya", "cografya", "geography"}, Field: model.FieldSubjectScore, Subject: "Coğrafya"},
}

// defaultMappings is the last-resort mapping emitted when inference finds
// nothing in the header row. It guarantees the orchestrator always has at
// least a minimal mapping to attempt.
func defaultMappings() []model.ColumnMapping {
	return []model.ColumnMapping{
		{Column: "A", Field: model.FieldStudentName},
		{Column: "B", Field: model.FieldStudentNumber},
		{Column: "C", Field: model.FieldSubjectScore, Subject: "Matematik"},
		{Column: "D", Field: model.FieldSubjectScore, Subject: "Türkçe"},
	}
}

// Resolver produces column mappings for a spreadsheet.
type Resolver struct {
	rules []KeywordRule
}

// NewResolver creates a resolver using the given keyword table, or
// DefaultKeywordRules when rules is nil.
func NewResolver(rules []KeywordRule) *Resolver {
	if rules == nil {
		rules = DefaultKeywordRules
	}
	return &Resolver{rules: rules}
}

// Resolve returns the mapping list for a header row. When a stored template
// is supplied its mappings are used verbatim. Resolve is total: any header
// row, including an empty one, yields at least the default mappings.
func (r *Resolver) Resolve(headerRow []string, template *model.ExamTemplate) []model.ColumnMapping {
	if template != nil {
		return template.Mappings
	}
	return r.infer(headerRow)
}

func (r *Resolver) infer(headerRow []string) []model.ColumnMapping {
	var mappings []model.ColumnMapping

	for i, header := range headerRow {
		// Turkish case folding: plain ToLower turns "İsim" into "i̇sim"
		// (dotted i plus combining mark), which breaks substring matching.
		cell := strings.ToLowerSpecial(unicode.TurkishCase, strings.TrimSpace(header))
		if cell == "" {
			continue
		}
		for _, rule := range r.rules {
			if !matchesAny(cell, rule.Tokens) {
				continue
			}
			mappings = append(mappings, model.ColumnMapping{
				Column:  IndexToColumn(i),
				Field:   rule.Field,
				Subject: rule.Subject,
			})
			break
		}
	}

	if len(mappings) == 0 {
		return defaultMappings()
	}
	return mappings
}

func matchesAny(cell string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(cell, tok) {
			return true
		}
	}
	return false
}
