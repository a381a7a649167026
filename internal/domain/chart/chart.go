// Package chart builds audiogram chart configurations from analysis results.
// The output is plain data for a client-side line chart; rendering and PNG
// export happen in the browser.
package chart

import (
	"fmt"

	"github.com/okian/audiogram/internal/domain/model"
)

// Mode selects the chart layout.
type Mode string

// Layouts. Dual is used whenever any bone-conduction value is present.
const (
	Combined Mode = "combined"
	Dual     Mode = "dual"
)

// Series colors.
const (
	RightColor     = "rgb(239, 68, 68)"
	RightFillColor = "rgba(239, 68, 68, 0.1)"
	LeftColor      = "rgb(59, 130, 246)"
	LeftFillColor  = "rgba(59, 130, 246, 0.1)"
)

// Axis describes one chart axis.
type Axis struct {
	Title   string  `json:"title"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
	Step    float64 `json:"step,omitempty"`
	Reverse bool    `json:"reverse,omitempty"`
}

// Dataset is one plotted line. Data has one entry per test frequency; nil
// entries are gaps that the line spans.
type Dataset struct {
	Label            string     `json:"label"`
	Data             []*float64 `json:"data"`
	BorderColor      string     `json:"borderColor"`
	BackgroundColor  string     `json:"backgroundColor"`
	PointStyle       string     `json:"pointStyle"`
	PointRadius      int        `json:"pointRadius"`
	PointHoverRadius int        `json:"pointHoverRadius"`
	BorderWidth      int        `json:"borderWidth"`
	BorderDash       []int      `json:"borderDash,omitempty"`
	Tension          float64    `json:"tension"`
	SpanGaps         bool       `json:"spanGaps"`
	// Marker is a symbol drawn over each point instead of the point style,
	// used for bone conduction.
	Marker string `json:"marker,omitempty"`
}

// Chart is a single audiogram.
type Chart struct {
	Title    string    `json:"title"`
	Ear      string    `json:"ear,omitempty"`
	FileName string    `json:"file_name"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
	XAxis    Axis      `json:"x_axis"`
	YAxis    Axis      `json:"y_axis"`
}

// Config is the set of charts for one result: one combined chart, or one
// chart per ear in dual mode.
type Config struct {
	Mode   Mode    `json:"mode"`
	Charts []Chart `json:"charts"`
}

var (
	xAxis = Axis{Title: "Frecuencia (Hz)"}
	yAxis = Axis{Title: "Umbral de Audición (dB HL)", Min: -10, Max: 120, Step: 10, Reverse: true}
)

// Build returns the chart configuration for res.
func Build(res model.AnalysisResult) Config {
	labels := Labels()
	if !res.HasBoneConduction() {
		right := airDataset("Oído Derecho (RE)", res.Air.RE, RightColor, RightFillColor, "circle", 8)
		left := airDataset("Oído Izquierdo (LE)", res.Air.LE, LeftColor, LeftFillColor, "crossRot", 8)
		left.BorderDash = []int{5, 5}
		return Config{
			Mode: Combined,
			Charts: []Chart{{
				Title:    "Audiograma Combinado",
				FileName: FileName(res.ParticipantID, ""),
				Labels:   labels,
				Datasets: []Dataset{right, left},
				XAxis:    xAxis,
				YAxis:    yAxis,
			}},
		}
	}

	right := Chart{
		Title:    "Oído Derecho (OD)",
		Ear:      model.RightEar.String(),
		FileName: FileName(res.ParticipantID, "OD"),
		Labels:   labels,
		Datasets: []Dataset{
			airDataset("Vía Aérea OD (O)", res.Air.RE, RightColor, RightFillColor, "circle", 10),
			boneDataset("Vía Ósea OD (<)", res.Bone.RE, RightColor, RightFillColor, "<"),
		},
		XAxis: xAxis,
		YAxis: yAxis,
	}
	left := Chart{
		Title:    "Oído Izquierdo (OI)",
		Ear:      model.LeftEar.String(),
		FileName: FileName(res.ParticipantID, "OI"),
		Labels:   labels,
		Datasets: []Dataset{
			airDataset("Vía Aérea OI (X)", res.Air.LE, LeftColor, LeftFillColor, "crossRot", 10),
			boneDataset("Vía Ósea OI (>)", res.Bone.LE, LeftColor, LeftFillColor, ">"),
		},
		XAxis: xAxis,
		YAxis: yAxis,
	}
	return Config{Mode: Dual, Charts: []Chart{right, left}}
}

// Labels returns the x axis labels, e.g. "500 Hz".
func Labels() []string {
	out := make([]string, model.NumFrequencies)
	for i, f := range model.Frequencies {
		out[i] = fmt.Sprintf("%d Hz", f)
	}
	return out
}

// FileName returns the PNG export name for a participant. suffix is empty for
// the combined chart, or OD / OI for one ear.
func FileName(id int64, suffix string) string {
	if suffix == "" {
		return fmt.Sprintf("audiograma_participante_%d.png", id)
	}
	return fmt.Sprintf("audiograma_participante_%d_%s.png", id, suffix)
}

// Points converts a row to chart values, nil where nothing is present.
func Points(row model.Row) []*float64 {
	out := make([]*float64, len(row))
	for i, t := range row {
		if v, ok := t.Get(); ok {
			out[i] = &v
		}
	}
	return out
}

func airDataset(label string, row model.Row, color, fill, point string, radius int) Dataset {
	return Dataset{
		Label:            label,
		Data:             Points(row),
		BorderColor:      color,
		BackgroundColor:  fill,
		PointStyle:       point,
		PointRadius:      radius,
		PointHoverRadius: radius + 2,
		BorderWidth:      3,
		Tension:          0.1,
		SpanGaps:         true,
	}
}

func boneDataset(label string, row model.Row, color, fill, marker string) Dataset {
	d := airDataset(label, row, color, fill, "circle", 0)
	d.PointHoverRadius = 12
	d.BorderDash = []int{5, 5}
	d.Marker = marker
	return d
}
