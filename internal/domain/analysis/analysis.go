// Package analysis assembles an AnalysisResult from a raw record or a manual
// entry: normalization, per-ear averages and severity classification.
package analysis

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/audiogram/internal/domain/fieldtable"
	"github.com/okian/audiogram/internal/domain/model"
	"github.com/okian/audiogram/internal/domain/normalize"
	"github.com/okian/audiogram/internal/domain/severity"
)

// Placeholder participant ids are drawn from [MinPlaceholderID, MaxPlaceholderID].
const (
	MinPlaceholderID = 10000
	MaxPlaceholderID = 99999
)

// Assembler builds analysis results. It holds no mutable state and is safe for
// concurrent use.
type Assembler struct {
	table  *fieldtable.Table
	nextID func() int64
}

// New returns an Assembler using the built-in field table.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		table:  fieldtable.Default(),
		nextID: PlaceholderID,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Table returns the field table the assembler reads records with.
func (a *Assembler) Table() *fieldtable.Table { return a.table }

// Assemble analyzes a dataset record. The participant id is copied as is.
func (a *Assembler) Assemble(raw model.RawRecord) model.AnalysisResult {
	air := normalize.Normalize(raw, a.table)
	bone := normalize.BoneConduction(raw, a.table)
	return build(raw.ID, air, bone, false)
}

// AssembleManual analyzes a manual entry. The participant id is trimmed; one
// that is not a non-negative integer is replaced by a placeholder.
func (a *Assembler) AssembleManual(entry model.ManualEntry) model.AnalysisResult {
	id, err := strconv.ParseInt(strings.TrimSpace(entry.ParticipantID), 10, 64)
	if err != nil || id < 0 {
		id = a.nextID()
	}
	air, bone := normalize.Manual(entry)
	return build(id, air, bone, true)
}

func build(id int64, air model.CanonicalThresholds, bone *model.CanonicalThresholds, custom bool) model.AnalysisResult {
	res := model.AnalysisResult{
		ParticipantID: id,
		Freqs:         model.Frequencies,
		Air:           air,
		Bone:          bone,
		Custom:        custom,
	}
	for _, e := range model.Ears {
		row := air.Ear(e)
		avg, n := Average(row)
		res.Average.Set(e, avg)
		res.PresentCount.Set(e, n)
		res.Loss.Set(e, severity.ClassifyAverage(avg))

		var perFreq [model.NumFrequencies]severity.Category
		for i, t := range row {
			perFreq[i] = severity.ClassifyFrequency(t)
		}
		res.FrequencyLoss.Set(e, perFreq)
	}
	return res
}

// Average returns the mean of the present thresholds in row and how many were
// present. A row with nothing present averages to 0.
func Average(row model.Row) (float64, int) {
	vals := row.Present()
	if len(vals) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), len(vals)
}

// PlaceholderID derives a participant id in the placeholder range from a
// random UUID. Uniqueness is cosmetic only.
func PlaceholderID() int64 {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[:8]) % (MaxPlaceholderID - MinPlaceholderID + 1)
	return MinPlaceholderID + int64(n)
}
