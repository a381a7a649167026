package analysis

import "github.com/okian/audiogram/internal/domain/fieldtable"

// Option configures an Assembler.
type Option func(*Assembler)

// WithFieldTable sets the field table used to read records.
func WithFieldTable(t *fieldtable.Table) Option {
	return func(a *Assembler) {
		if t != nil {
			a.table = t
		}
	}
}

// WithIDGenerator sets the source of placeholder participant ids.
func WithIDGenerator(gen func() int64) Option {
	return func(a *Assembler) {
		if gen != nil {
			a.nextID = gen
		}
	}
}
