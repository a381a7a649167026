package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/audiogram/internal/domain/dedupe"
	"github.com/okian/audiogram/internal/domain/fieldtable"
	"github.com/okian/audiogram/internal/domain/model"
	"github.com/okian/audiogram/internal/domain/normalize"
	"github.com/okian/audiogram/pkg/logger"
)

// Layout names the tabular format a dataset was read in.
type Layout string

// Supported layouts.
const (
	// Positional is the published database page: a marker header line, then
	// comma separated rows read at fixed column positions.
	Positional Layout = "positional"
	// HeaderCSV is a plain CSV file whose first row names the columns.
	HeaderCSV Layout = "header_csv"
)

// Reason is why a row was not turned into a record.
type Reason string

// Rejection reasons.
const (
	ReasonInvalidID    Reason = "invalid_identifier"
	ReasonNoThresholds Reason = "no_thresholds"
	ReasonDuplicate    Reason = "duplicate"
	ReasonShortRow     Reason = "short_row"
	ReasonMalformed    Reason = "malformed"
)

// Reasons lists every rejection reason.
var Reasons = []Reason{ReasonInvalidID, ReasonNoThresholds, ReasonDuplicate, ReasonShortRow, ReasonMalformed}

// Stats summarizes one parse.
type Stats struct {
	Layout   Layout         `json:"layout"`
	Version  string         `json:"table_version"`
	Rows     int            `json:"rows"`
	Accepted int            `json:"accepted"`
	Rejected map[Reason]int `json:"rejected"`
}

// RejectedTotal returns the number of rows rejected for any reason.
func (s Stats) RejectedTotal() int {
	n := 0
	for _, c := range s.Rejected {
		n += c
	}
	return n
}

func (s *Stats) reject(r Reason) {
	if s.Rejected == nil {
		s.Rejected = make(map[Reason]int)
	}
	s.Rejected[r]++
}

// Parser turns dataset bytes into raw records.
type Parser struct {
	table *fieldtable.Table
	log   logger.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithParserLogger sets the logger rejected rows are reported to at debug level.
func WithParserLogger(l logger.Logger) ParserOption {
	return func(p *Parser) {
		if l != nil {
			p.log = l
		}
	}
}

// NewParser returns a parser for table. A nil table selects the built-in one.
func NewParser(table *fieldtable.Table, opts ...ParserOption) *Parser {
	if table == nil {
		table = fieldtable.Default()
	}
	p := &Parser{table: table, log: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads records with the built-in field table.
func Parse(r io.Reader, table *fieldtable.Table) ([]model.RawRecord, Stats, error) {
	return NewParser(table).Parse(context.Background(), r)
}

// Parse detects the layout of r and extracts one record per accepted row.
// Rows with the same identifier keep the first occurrence.
func (p *Parser) Parse(ctx context.Context, r io.Reader) ([]model.RawRecord, Stats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read dataset: %w", err)
	}

	stats := Stats{Version: p.table.Version, Rejected: make(map[Reason]int)}
	seen := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(bytes.Count(data, []byte{'\n'})))

	var records []model.RawRecord
	switch {
	case p.table.Marker != "" && bytes.Contains(data, []byte(p.table.Marker)):
		stats.Layout = Positional
		records, err = p.parsePositional(ctx, data, seen, &stats)
	case p.hasHeader(data):
		stats.Layout = HeaderCSV
		records, err = p.parseHeader(ctx, data, seen, &stats)
	default:
		return nil, stats, ErrUnknownLayout
	}
	if err != nil {
		return nil, stats, err
	}

	if n := seen.Duplicates(); n > 0 {
		stats.Rejected[ReasonDuplicate] = int(n)
	}
	stats.Accepted = len(records)
	if len(records) == 0 {
		return nil, stats, ErrNoRecords
	}
	return records, stats, nil
}

func (p *Parser) parsePositional(ctx context.Context, data []byte, seen dedupe.Deduper, stats *Stats) ([]model.RawRecord, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var records []model.RawRecord
	started := false
	for sc.Scan() {
		line := sc.Text()
		if !started {
			started = strings.Contains(line, p.table.Marker)
			continue
		}
		if strings.TrimSpace(line) == "" || strings.Contains(line, "<") || !strings.Contains(line, ",") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stats.Rows++
		values := strings.Split(line, ",")
		if len(values) < p.table.MinColumns {
			p.rejected(ctx, stats, ReasonShortRow, stats.Rows)
			continue
		}

		rec, reason, ok := p.build(func(f fieldtable.Field) (string, bool) {
			if !f.Positional() || f.Column >= len(values) {
				return "", false
			}
			return values[f.Column], true
		}, seen)
		if !ok {
			p.rejected(ctx, stats, reason, stats.Rows)
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan dataset: %w", err)
	}
	return records, nil
}

func (p *Parser) hasHeader(data []byte) bool {
	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return false
	}
	for _, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), p.table.Identifier.ID) {
			return true
		}
	}
	return false
}

func (p *Parser) parseHeader(ctx context.Context, data []byte, seen dedupe.Deduper, stats *Stats) ([]model.RawRecord, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToUpper(strings.TrimSpace(h))] = i
	}

	var records []model.RawRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		stats.Rows++
		if err != nil {
			p.rejected(ctx, stats, ReasonMalformed, stats.Rows)
			continue
		}

		rec, reason, ok := p.build(func(f fieldtable.Field) (string, bool) {
			i, found := index[strings.ToUpper(f.ID)]
			if !found || i >= len(row) {
				return "", false
			}
			return row[i], true
		}, seen)
		if !ok {
			p.rejected(ctx, stats, reason, stats.Rows)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// build applies the row policy: a valid identifier, at least one present air
// value, and an identifier not seen before.
func (p *Parser) build(cell func(fieldtable.Field) (string, bool), seen dedupe.Deduper) (model.RawRecord, Reason, bool) {
	idText, _ := cell(p.table.Identifier)
	id, ok := ParseIdentifier(idText)
	if !ok {
		return model.RawRecord{}, ReasonInvalidID, false
	}

	rec := model.NewRawRecord(id)
	for _, set := range [...]fieldtable.Ears{p.table.Air, p.table.Bone} {
		for _, fields := range [...][]fieldtable.Field{set.Right, set.Left} {
			for _, f := range fields {
				if v, ok := cell(f); ok {
					rec.Set(f.ID, model.Text(v))
				}
			}
		}
	}
	if !normalize.Normalize(rec, p.table).AnyPresent() {
		return model.RawRecord{}, ReasonNoThresholds, false
	}
	if seen.SeenAndRecord(id) {
		return model.RawRecord{}, ReasonDuplicate, false
	}
	return rec, "", true
}

func (p *Parser) rejected(ctx context.Context, stats *Stats, reason Reason, row int) {
	// Duplicates are counted by the deduper.
	if reason != ReasonDuplicate {
		stats.reject(reason)
	}
	p.log.Debug(ctx, "row rejected", logger.String("reason", string(reason)), logger.Int("row", row))
}

// ParseIdentifier parses a participant identifier. It accepts non-negative
// integers, including integral decimals such as "93705.0".
func ParseIdentifier(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, id >= 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
