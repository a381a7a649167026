package repository

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrNotFound        = errors.New("participant not found")
	ErrEmpty           = errors.New("no records loaded")
	ErrIndexOutOfRange = errors.New("record index out of range")
)
