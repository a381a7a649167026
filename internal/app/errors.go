package service

import (
	"errors"

	"github.com/okian/audiogram/internal/adapters/repository"
)

// Sentinel errors returned by the service. Lookup misses reuse the store's
// sentinels so errors.Is works against either package.
var (
	ErrNotLoaded       = errors.New("dataset not loaded")
	ErrNotFound        = repository.ErrNotFound
	ErrIndexOutOfRange = repository.ErrIndexOutOfRange
)
