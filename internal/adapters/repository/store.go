// Package repository holds the loaded participant records and answers
// selection queries over them.
package repository

import (
	"context"

	"github.com/okian/audiogram/internal/domain/model"
)

// Store provides read access to the loaded dataset and lets a new load
// replace it as a whole.
type Store interface {
	// Replace swaps the whole dataset. Readers see either the old or the new
	// records, never a mix.
	Replace(ctx context.Context, records []model.RawRecord)

	// Len returns the number of loaded records.
	Len(ctx context.Context) int

	// At returns the record at position i in load order.
	// Returns ErrEmpty or ErrIndexOutOfRange.
	At(ctx context.Context, i int) (model.RawRecord, error)

	// First returns the first record, the one shown when a dataset loads.
	First(ctx context.Context) (model.RawRecord, error)

	// ByID returns the record with participant id.
	// Returns ErrNotFound if the id is unknown.
	ByID(ctx context.Context, id int64) (model.RawRecord, error)

	// Random returns a uniformly chosen record.
	Random(ctx context.Context) (model.RawRecord, error)

	// All returns the records in load order. The slice is shared; callers
	// must not modify it.
	All(ctx context.Context) []model.RawRecord
}
