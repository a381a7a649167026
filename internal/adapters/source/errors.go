package source

import "errors"

// Sentinel errors for dataset loading.
var (
	// ErrSourceUnavailable covers timeouts, missing files and non-2xx responses.
	ErrSourceUnavailable = errors.New("dataset source unavailable")
	// ErrNoRecords means the dataset was read but no row was accepted.
	ErrNoRecords = errors.New("dataset contains no usable records")
	// ErrUnknownLayout means neither the positional marker nor a header row
	// naming the identifier column was found.
	ErrUnknownLayout = errors.New("unrecognized dataset layout")
)
