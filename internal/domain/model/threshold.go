// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strconv"
)

// NumFrequencies is the number of audiometric test frequencies per ear.
const NumFrequencies = 7

// Frequencies are the test frequencies in Hz. Position i of every threshold
// row corresponds to Frequencies[i].
var Frequencies = [NumFrequencies]int{500, 1000, 2000, 3000, 4000, 6000, 8000}

// Decibel range accepted as a present threshold, in dB HL.
const (
	MinThreshold = 0
	MaxThreshold = 120
)

// Ear identifies an ear channel.
type Ear int

// Ear channels.
const (
	RightEar Ear = iota
	LeftEar
)

// Ears lists both channels in display order.
var Ears = [...]Ear{RightEar, LeftEar}

// String returns the short channel code, RE or LE.
func (e Ear) String() string {
	if e == LeftEar {
		return "LE"
	}
	return "RE"
}

// Suffix is the letter the dataset appends to field identifiers for e.
func (e Ear) Suffix() string {
	if e == LeftEar {
		return "L"
	}
	return "R"
}

// Label is the display name of e.
func (e Ear) Label() string {
	if e == LeftEar {
		return "Oído Izquierdo"
	}
	return "Oído Derecho"
}

// State is the outcome of validating a single raw value.
type State uint8

// Threshold states. Only StatePresent carries a usable value.
const (
	StateAbsent State = iota
	StatePresent
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StatePresent:
		return "present"
	case StateInvalid:
		return "invalid"
	default:
		return "absent"
	}
}

// Threshold is a single decibel measurement that may be absent or invalid.
// The zero value is absent.
type Threshold struct {
	db    float64
	state State
}

// Present returns a present threshold of db decibels. Callers validate the
// range before constructing it.
func Present(db float64) Threshold { return Threshold{db: db, state: StatePresent} }

// Absent returns a threshold with no measurement.
func Absent() Threshold { return Threshold{} }

// Invalid returns a threshold whose raw value failed validation.
func Invalid() Threshold { return Threshold{state: StateInvalid} }

// Get returns the decibel value and whether it is present.
func (t Threshold) Get() (float64, bool) {
	if t.state != StatePresent {
		return 0, false
	}
	return t.db, true
}

// IsPresent reports whether t carries a usable value.
func (t Threshold) IsPresent() bool { return t.state == StatePresent }

// State returns the validation state of t.
func (t Threshold) State() State { return t.state }

func (t Threshold) String() string {
	if v, ok := t.Get(); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return t.state.String()
}

// MarshalJSON encodes present thresholds as numbers and everything else as null.
func (t Threshold) MarshalJSON() ([]byte, error) {
	if v, ok := t.Get(); ok {
		return json.Marshal(v)
	}
	return []byte("null"), nil
}

// Row is one ear's thresholds aligned to Frequencies.
type Row [NumFrequencies]Threshold

// Present returns the present values of r in frequency order.
func (r Row) Present() []float64 {
	out := make([]float64, 0, NumFrequencies)
	for _, t := range r {
		if v, ok := t.Get(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Count returns how many positions of r are in state s.
func (r Row) Count(s State) int {
	n := 0
	for _, t := range r {
		if t.state == s {
			n++
		}
	}
	return n
}

// CanonicalThresholds holds both ears' rows.
type CanonicalThresholds struct {
	RE Row `json:"RE"`
	LE Row `json:"LE"`
}

// Ear returns the row for e.
func (c CanonicalThresholds) Ear(e Ear) Row {
	if e == LeftEar {
		return c.LE
	}
	return c.RE
}

// AnyPresent reports whether at least one position of either ear is present.
func (c CanonicalThresholds) AnyPresent() bool {
	return c.RE.Count(StatePresent) > 0 || c.LE.Count(StatePresent) > 0
}
