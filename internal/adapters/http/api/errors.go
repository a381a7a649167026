package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidID    = errors.New("participant id must be a non-negative integer")
	ErrInvalidIndex = errors.New("index must be a non-negative integer")
	ErrTooManyCells = errors.New("at most 7 thresholds per ear")
)
