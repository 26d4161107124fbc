package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vedvix/syncledger-extract/constants"
)

// FieldValue is a single extracted field. Text always carries the raw
// string form; Date and Amount are set when the value parsed as a
// typed quantity.
type FieldValue struct {
	Text   string           `json:"text"`
	Date   *time.Time       `json:"date,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// TextValue builds a plain text field value.
func TextValue(s string) FieldValue {
	return FieldValue{Text: s}
}

// DateValue builds a date field value with an ISO text form.
func DateValue(t time.Time) FieldValue {
	return FieldValue{Text: t.Format("2006-01-02"), Date: &t}
}

// AmountValue builds a monetary field value.
func AmountValue(d decimal.Decimal) FieldValue {
	return FieldValue{Text: d.StringFixed(2), Amount: &d}
}

// IsZero reports whether the value carries no data.
func (v FieldValue) IsZero() bool {
	return v.Text == "" && v.Date == nil && v.Amount == nil
}

// RawFieldSet holds pattern-extracted fields keyed by source field name,
// plus the raw document text they were extracted from.
type RawFieldSet struct {
	Fields  map[constants.SourceField]FieldValue `json:"fields"`
	RawText string                               `json:"-"`
}

// NewRawFieldSet creates an empty field set over the given raw text.
func NewRawFieldSet(rawText string) *RawFieldSet {
	return &RawFieldSet{
		Fields:  make(map[constants.SourceField]FieldValue),
		RawText: rawText,
	}
}

// Set stores a field value, replacing any existing value.
func (s *RawFieldSet) Set(field constants.SourceField, value FieldValue) {
	if s.Fields == nil {
		s.Fields = make(map[constants.SourceField]FieldValue)
	}
	s.Fields[field] = value
}

// Get returns the value for a field and whether it is present.
func (s *RawFieldSet) Get(field constants.SourceField) (FieldValue, bool) {
	if s == nil || s.Fields == nil {
		return FieldValue{}, false
	}
	v, ok := s.Fields[field]
	return v, ok
}

// Has reports whether a non-empty value exists for the field.
func (s *RawFieldSet) Has(field constants.SourceField) bool {
	v, ok := s.Get(field)
	return ok && !v.IsZero()
}

// Text returns the text form of a field, or "" when absent.
func (s *RawFieldSet) Text(field constants.SourceField) string {
	v, _ := s.Get(field)
	return v.Text
}

// Amount returns the decimal form of a field, or nil when absent.
func (s *RawFieldSet) Amount(field constants.SourceField) *decimal.Decimal {
	v, _ := s.Get(field)
	return v.Amount
}

// Date returns the date form of a field, or nil when absent.
func (s *RawFieldSet) Date(field constants.SourceField) *time.Time {
	v, _ := s.Get(field)
	return v.Date
}

// SortedFields returns the present field names in stable order.
func (s *RawFieldSet) SortedFields() []constants.SourceField {
	if s == nil {
		return nil
	}
	fields := make([]constants.SourceField, 0, len(s.Fields))
	for f := range s.Fields {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// Len returns the number of stored fields.
func (s *RawFieldSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Fields)
}
