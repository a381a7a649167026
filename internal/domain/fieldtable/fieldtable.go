// Package fieldtable maps dataset field identifiers and column positions to
// ears and test frequencies. The mapping is data, not code: a new dataset
// cycle ships a new table.
package fieldtable

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/okian/audiogram/internal/domain/model"
	"gopkg.in/yaml.v3"
)

//go:embed nhanes.yaml
var defaultTable []byte

// Validation errors.
var (
	ErrInvalidTable      = errors.New("invalid field table")
	ErrMissingVersion    = errors.New("version is required")
	ErrMissingIdentifier = errors.New("identifier.id is required")
	ErrFieldCount        = errors.New("each ear needs one field per test frequency")
	ErrDuplicateField    = errors.New("field identifier listed twice")
	ErrEmptyFieldID      = errors.New("field id must not be empty")
)

// Field locates one value: by identifier in header CSV files and by
// column position in positional files. Column is -1 when the field has no
// fixed position.
type Field struct {
	ID     string `yaml:"id"`
	Column int    `yaml:"column"`
}

// Positional reports whether f can be read from a positional row.
func (f Field) Positional() bool { return f.Column >= 0 }

// Ears lists one field per test frequency for each ear.
type Ears struct {
	Right []Field `yaml:"right"`
	Left  []Field `yaml:"left"`
}

// Get returns the field for ear e at frequency index i.
func (s Ears) Get(e model.Ear, i int) Field {
	if e == model.LeftEar {
		return s.Left[i]
	}
	return s.Right[i]
}

// Table is a versioned field-identifier table.
type Table struct {
	Version    string `yaml:"version"`
	Marker     string `yaml:"marker"`
	MinColumns int    `yaml:"min_columns"`
	Identifier Field  `yaml:"identifier"`
	Air        Ears   `yaml:"air"`
	Bone       Ears   `yaml:"bone"`
}

// HasBone reports whether the table defines bone-conduction fields.
func (t *Table) HasBone() bool {
	return len(t.Bone.Right) > 0 || len(t.Bone.Left) > 0
}

// MaxColumn returns the highest column position referenced by the table.
func (t *Table) MaxColumn() int {
	maxCol := t.Identifier.Column
	for _, set := range []Ears{t.Air, t.Bone} {
		for _, f := range append(append([]Field(nil), set.Right...), set.Left...) {
			if f.Column > maxCol {
				maxCol = f.Column
			}
		}
	}
	return maxCol
}

// Validate checks that every ear has exactly one field per test frequency and
// that no identifier repeats.
func (t *Table) Validate() error {
	if t.Version == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTable, ErrMissingVersion)
	}
	if t.Identifier.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTable, ErrMissingIdentifier)
	}
	seen := map[string]bool{t.Identifier.ID: true}
	check := func(name string, fields []Field) error {
		if len(fields) != model.NumFrequencies {
			return fmt.Errorf("%w: %w: %s has %d", ErrInvalidTable, ErrFieldCount, name, len(fields))
		}
		for _, f := range fields {
			if f.ID == "" {
				return fmt.Errorf("%w: %w in %s", ErrInvalidTable, ErrEmptyFieldID, name)
			}
			if seen[f.ID] {
				return fmt.Errorf("%w: %w: %s", ErrInvalidTable, ErrDuplicateField, f.ID)
			}
			seen[f.ID] = true
		}
		return nil
	}
	if err := check("air.right", t.Air.Right); err != nil {
		return err
	}
	if err := check("air.left", t.Air.Left); err != nil {
		return err
	}
	if !t.HasBone() {
		return nil
	}
	if err := check("bone.right", t.Bone.Right); err != nil {
		return err
	}
	return check("bone.left", t.Bone.Left)
}

// Parse decodes and validates a YAML table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads a table from path. An empty path returns the built-in table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field table: %w", err)
	}
	return Parse(data)
}

var builtin = func() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(err)
	}
	return t
}()

// Default returns a copy of the built-in 2015-2016 table.
func Default() *Table {
	t := *builtin
	t.Air = Ears{Right: append([]Field(nil), builtin.Air.Right...), Left: append([]Field(nil), builtin.Air.Left...)}
	t.Bone = Ears{Right: append([]Field(nil), builtin.Bone.Right...), Left: append([]Field(nil), builtin.Bone.Left...)}
	return &t
}
