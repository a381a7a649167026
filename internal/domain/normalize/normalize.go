// Package normalize turns raw record fields into canonical per-ear threshold
// rows. It never fails: anything that is not a usable measurement becomes an
// absent or invalid threshold.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/audiogram/internal/domain/fieldtable"
	"github.com/okian/audiogram/internal/domain/model"
)

// ParseValue validates a single raw value.
//
//   - missing fields and blank text are absent
//   - finite numbers in [0,120], given as numbers or numeric text, are present
//   - everything else is invalid
func ParseValue(v model.RawValue) model.Threshold {
	if v.IsMissing() {
		return model.Absent()
	}
	if n, ok := v.AsNumber(); ok {
		return fromNumber(n)
	}
	s, _ := v.AsText()
	return ParseText(s)
}

// ParseText validates a single textual value, as typed into a form.
func ParseText(s string) model.Threshold {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Absent()
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Invalid()
	}
	return fromNumber(n)
}

func fromNumber(n float64) model.Threshold {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return model.Invalid()
	}
	if n < model.MinThreshold || n > model.MaxThreshold {
		return model.Invalid()
	}
	return model.Present(n)
}

// Normalize extracts air-conduction thresholds for both ears. A nil table
// selects the built-in one.
func Normalize(raw model.RawRecord, table *fieldtable.Table) model.CanonicalThresholds {
	if table == nil {
		table = fieldtable.Default()
	}
	return extract(raw, table.Air)
}

// BoneConduction extracts bone-conduction thresholds. It returns nil when the
// table has no bone fields or the record carries none of them.
func BoneConduction(raw model.RawRecord, table *fieldtable.Table) *model.CanonicalThresholds {
	if table == nil {
		table = fieldtable.Default()
	}
	if !table.HasBone() {
		return nil
	}
	supplied := false
	for _, f := range append(append([]fieldtable.Field(nil), table.Bone.Right...), table.Bone.Left...) {
		if !raw.Field(f.ID).IsMissing() {
			supplied = true
			break
		}
	}
	if !supplied {
		return nil
	}
	out := extract(raw, table.Bone)
	return &out
}

func extract(raw model.RawRecord, fields fieldtable.Ears) model.CanonicalThresholds {
	var out model.CanonicalThresholds
	for i := 0; i < model.NumFrequencies; i++ {
		out.RE[i] = ParseValue(raw.Field(fields.Get(model.RightEar, i).ID))
		out.LE[i] = ParseValue(raw.Field(fields.Get(model.LeftEar, i).ID))
	}
	return out
}

// Rows normalizes form text for both ears.
func Rows(rows model.ManualRows) model.CanonicalThresholds {
	var out model.CanonicalThresholds
	for i := 0; i < model.NumFrequencies; i++ {
		out.RE[i] = ParseText(rows.RE[i])
		out.LE[i] = ParseText(rows.LE[i])
	}
	return out
}

// Manual normalizes a manual entry. bone is nil for air-only entries.
func Manual(entry model.ManualEntry) (air model.CanonicalThresholds, bone *model.CanonicalThresholds) {
	air = Rows(entry.Air)
	if entry.Bone != nil {
		b := Rows(*entry.Bone)
		bone = &b
	}
	return air, bone
}
