// Package severity classifies hearing thresholds into hearing-loss categories.
package severity

// Category is a hearing-loss severity label.
type Category string

// Categories in increasing order of threshold. NoData is only produced for a
// single-frequency value that is not present.
const (
	Normal      Category = "Normal"
	Leve        Category = "Leve"
	Moderada    Category = "Moderada"
	Severa      Category = "Severa"
	Profunda    Category = "Profunda"
	MuyProfunda Category = "Muy Profunda"
	NoData      Category = "Sin datos"
)

// unknownLabel is shown for an unset category.
const unknownLabel = "Datos insuficientes"

// Band is one classification band: (Lower, Upper] in dB HL. The first band
// has no lower bound and the last one has no upper bound.
type Band struct {
	Category Category `json:"category"`
	Lower    float64  `json:"lower"`
	Upper    float64  `json:"upper"`
	Bounded  bool     `json:"bounded"`
	Range    string   `json:"range"`
	Color    string   `json:"color"`
}

// Upper bounds are inclusive.
var bands = [...]Band{
	{Category: Normal, Upper: 25, Bounded: true, Range: "<= 25 dB HL", Color: "green"},
	{Category: Leve, Lower: 25, Upper: 40, Bounded: true, Range: "26-40 dB HL", Color: "yellow"},
	{Category: Moderada, Lower: 40, Upper: 55, Bounded: true, Range: "41-55 dB HL", Color: "orange"},
	{Category: Severa, Lower: 55, Upper: 70, Bounded: true, Range: "56-70 dB HL", Color: "red"},
	{Category: Profunda, Lower: 70, Upper: 90, Bounded: true, Range: "71-90 dB HL", Color: "purple"},
	{Category: MuyProfunda, Lower: 90, Range: "> 90 dB HL", Color: "indigo"},
}

// Reading is a single measurement that may be absent.
type Reading interface {
	Get() (float64, bool)
}

// Bands returns a copy of the classification table, lowest band first.
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands[:])
	return out
}

// Categories returns the six ordered severity categories.
func Categories() []Category {
	out := make([]Category, len(bands))
	for i, b := range bands {
		out[i] = b.Category
	}
	return out
}

// Classify maps a decibel value to its category. Every finite value maps to
// exactly one category; values below the first band are Normal.
func Classify(v float64) Category {
	for _, b := range bands[:len(bands)-1] {
		if v <= b.Upper {
			return b.Category
		}
	}
	return MuyProfunda
}

// ClassifyAverage classifies a whole-ear average. It uses the same bands as
// ClassifyFrequency.
func ClassifyAverage(avg float64) Category {
	return Classify(avg)
}

// ClassifyFrequency classifies a single-frequency reading. A reading that is
// not present is NoData regardless of its numeric value.
func ClassifyFrequency(r Reading) Category {
	v, ok := r.Get()
	if !ok {
		return NoData
	}
	return Classify(v)
}

// Rank returns the position of c in the severity order, or -1 for NoData and
// unknown labels.
func (c Category) Rank() int {
	for i, b := range bands {
		if b.Category == c {
			return i
		}
	}
	return -1
}

// Color returns the badge color used to display c.
func (c Category) Color() string {
	for _, b := range bands {
		if b.Category == c {
			return b.Color
		}
	}
	return "gray"
}

// Known reports whether c is one of the six categories or NoData.
func (c Category) Known() bool {
	return c == NoData || c.Rank() >= 0
}

// String implements fmt.Stringer.
func (c Category) String() string {
	if c == "" {
		return unknownLabel
	}
	return string(c)
}
