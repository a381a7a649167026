// Package report renders analysis results as terminal tables with colored
// severity badges.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"

	service "github.com/okian/audiogram/internal/app"
	"github.com/okian/audiogram/internal/domain/model"
	"github.com/okian/audiogram/internal/domain/severity"
)

// Badge colors keyed by severity.Category.Color names.
var palette = map[string]string{
	"green":  "#22C55E",
	"yellow": "#EAB308",
	"orange": "#F97316",
	"red":    "#EF4444",
	"purple": "#A855F7",
	"indigo": "#6366F1",
	"gray":   "#94A3B8",
}

var titleStyle = lipgloss.NewStyle().Bold(true)

// Renderer writes reports. The zero value is not usable; call New.
type Renderer struct {
	color bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor toggles ANSI styling. Plain output keeps the same layout.
func WithColor(on bool) Option {
	return func(r *Renderer) { r.color = on }
}

// New returns a Renderer with color enabled.
func New(opts ...Option) *Renderer {
	r := &Renderer{color: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Badge renders a category label in its display color.
func (r *Renderer) Badge(c severity.Category) string {
	if !r.color {
		return c.String()
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(palette[c.Color()])).
		Render(c.String())
}

func (r *Renderer) title(s string) string {
	if !r.color {
		return s
	}
	return titleStyle.Render(s)
}

// Analysis writes one participant's thresholds, averages and classifications.
func (r *Renderer) Analysis(w io.Writer, res model.AnalysisResult) error {
	head := "Participante " + strconv.FormatInt(res.ParticipantID, 10)
	if res.Custom {
		head += " (personalizado)"
	}

	t := newTable(r, append(append([]string{"Oído"}, freqHeaders(res.Freqs)...), "Promedio", "Pérdida"))
	for _, e := range model.Ears {
		row := []cell{{text: e.Label() + " (" + e.String() + ")"}}
		for _, th := range res.Air.Ear(e) {
			row = append(row, cell{text: threshold(th)})
		}
		row = append(row,
			cell{text: fmt.Sprintf("%.1f (%d/%d)", res.Average.Get(e), res.PresentCount.Get(e), model.NumFrequencies)},
			cell{text: res.Loss.Get(e).String(), cat: res.Loss.Get(e)},
		)
		t.add(row)
	}
	if res.Bone != nil {
		for _, e := range model.Ears {
			row := []cell{{text: "Vía ósea " + e.String()}}
			for _, th := range res.Bone.Ear(e) {
				row = append(row, cell{text: threshold(th)})
			}
			t.add(append(row, cell{}, cell{}))
		}
	}

	freq := newTable(r, append([]string{"Oído"}, freqHeaders(res.Freqs)...))
	for _, e := range model.Ears {
		row := []cell{{text: e.String()}}
		for _, c := range res.FrequencyLoss.Get(e) {
			row = append(row, cell{text: c.String(), cat: c})
		}
		freq.add(row)
	}

	var b strings.Builder
	b.WriteString(r.title(head) + "\n\n")
	t.write(&b)
	b.WriteString("\n" + r.title("Clasificación por frecuencia") + "\n\n")
	freq.write(&b)
	_, err := io.WriteString(w, b.String())
	return err
}

// Summary writes cohort counts per category and mean thresholds per frequency.
func (r *Renderer) Summary(w io.Writer, sum service.Summary) error {
	counts := newTable(r, []string{"Categoría", "RE", "LE"})
	for _, c := range sum.Categories {
		counts.add([]cell{
			{text: c.String(), cat: c},
			{text: strconv.Itoa(sum.Counts.RE[c])},
			{text: strconv.Itoa(sum.Counts.LE[c])},
		})
	}
	counts.add([]cell{
		{text: severity.NoData.String(), cat: severity.NoData},
		{text: strconv.Itoa(sum.NoData.RE)},
		{text: strconv.Itoa(sum.NoData.LE)},
	})

	means := newTable(r, append([]string{"Oído"}, freqHeaders(sum.Freqs)...))
	for _, e := range model.Ears {
		row := []cell{{text: e.String()}}
		for _, m := range sum.MeanDB.Get(e) {
			if m == nil {
				row = append(row, cell{text: "-"})
				continue
			}
			row = append(row, cell{text: fmt.Sprintf("%.1f", *m)})
		}
		means.add(row)
	}

	var b strings.Builder
	b.WriteString(r.title(fmt.Sprintf("Resumen de %d participantes", sum.Participants)) + "\n\n")
	counts.write(&b)
	b.WriteString("\n" + r.title("Umbral medio (dB HL)") + "\n\n")
	means.write(&b)
	_, err := io.WriteString(w, b.String())
	return err
}

// Bands writes the classification legend.
func (r *Renderer) Bands(w io.Writer, bands []severity.Band) error {
	t := newTable(r, []string{"Categoría", "Rango"})
	for _, band := range bands {
		t.add([]cell{{text: band.Category.String(), cat: band.Category}, {text: band.Range}})
	}
	var b strings.Builder
	b.WriteString(r.title("Clasificación de Pérdida Auditiva") + "\n\n")
	t.write(&b)
	_, err := io.WriteString(w, b.String())
	return err
}

func freqHeaders(freqs [model.NumFrequencies]int) []string {
	out := make([]string, len(freqs))
	for i, f := range freqs {
		out[i] = strconv.Itoa(f)
	}
	return out
}

func threshold(t model.Threshold) string {
	switch t.State() {
	case model.StatePresent:
		return t.String()
	case model.StateInvalid:
		return "?"
	default:
		return "-"
	}
}

// cell is one table cell. A non-empty cat renders the text as a badge.
type cell struct {
	text string
	cat  severity.Category
}

type table struct {
	r      *Renderer
	header []string
	rows   [][]cell
}

func newTable(r *Renderer, header []string) *table {
	return &table{r: r, header: header}
}

func (t *table) add(row []cell) { t.rows = append(t.rows, row) }

// write pads on display width so accented labels stay aligned; styling is
// applied after padding.
func (t *table) write(b *strings.Builder) {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, c := range row {
			if w := runewidth.StringWidth(c.text); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string) {
		b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")
	}
	hdr := make([]string, len(t.header))
	for i, h := range t.header {
		hdr[i] = runewidth.FillRight(h, widths[i])
	}
	line(hdr)
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	line(rule)
	for _, row := range t.rows {
		out := make([]string, len(row))
		for i, c := range row {
			pad := strings.Repeat(" ", widths[i]-runewidth.StringWidth(c.text))
			text := c.text
			if c.cat != "" {
				text = t.r.Badge(c.cat)
			}
			out[i] = text + pad
		}
		line(out)
	}
}
