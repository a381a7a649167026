package model

import "strings"

type rawKind uint8

const (
	rawMissing rawKind = iota
	rawText
	rawNumber
)

// RawValue is a field value as supplied by a record source: missing, text, or
// a number. Validation happens in the normalizer, not here.
type RawValue struct {
	kind rawKind
	text string
	num  float64
}

// Missing is the value of a field the source did not supply.
var Missing = RawValue{}

// Text wraps a textual cell, e.g. a CSV column or a form input.
func Text(s string) RawValue { return RawValue{kind: rawText, text: s} }

// Number wraps a numeric value produced by a typed source.
func Number(v float64) RawValue { return RawValue{kind: rawNumber, num: v} }

// IsMissing reports whether the field was not supplied.
func (v RawValue) IsMissing() bool { return v.kind == rawMissing }

// AsText returns the text and true if v was built with Text.
func (v RawValue) AsText() (string, bool) { return v.text, v.kind == rawText }

// AsNumber returns the number and true if v was built with Number.
func (v RawValue) AsNumber() (float64, bool) { return v.num, v.kind == rawNumber }

// RawRecord is one participant's measurements keyed by field identifier.
type RawRecord struct {
	// ID is the participant identifier (SEQN). HasID is false when the
	// source had none, as with manual entry.
	ID     int64
	HasID  bool
	Fields map[string]RawValue
}

// NewRawRecord returns a record with identifier id and no fields.
func NewRawRecord(id int64) RawRecord {
	return RawRecord{ID: id, HasID: true, Fields: make(map[string]RawValue)}
}

// Field returns the value for id, or Missing.
func (r RawRecord) Field(id string) RawValue {
	if r.Fields == nil {
		return Missing
	}
	v, ok := r.Fields[id]
	if !ok {
		return Missing
	}
	return v
}

// Set stores a field value. It allocates Fields on first use.
func (r *RawRecord) Set(id string, v RawValue) {
	if r.Fields == nil {
		r.Fields = make(map[string]RawValue)
	}
	r.Fields[id] = v
}

// ManualRows holds form text for both ears, aligned to Frequencies.
type ManualRows struct {
	RE [NumFrequencies]string `json:"RE"`
	LE [NumFrequencies]string `json:"LE"`
}

// Ear returns the row for e.
func (m ManualRows) Ear(e Ear) [NumFrequencies]string {
	if e == LeftEar {
		return m.LE
	}
	return m.RE
}

// ManualEntry is a user-entered audiogram. Bone is nil for air-only entry.
type ManualEntry struct {
	ParticipantID string
	Air           ManualRows
	Bone          *ManualRows
}

// ParseRow splits a comma separated list into a form row. Missing trailing
// positions stay empty and extra positions are dropped.
func ParseRow(s string) [NumFrequencies]string {
	var row [NumFrequencies]string
	if strings.TrimSpace(s) == "" {
		return row
	}
	for i, part := range strings.Split(s, ",") {
		if i >= NumFrequencies {
			break
		}
		row[i] = strings.TrimSpace(part)
	}
	return row
}
