package service

import (
	"time"

	"github.com/okian/audiogram/internal/adapters/repository"
	"github.com/okian/audiogram/internal/domain/fieldtable"
	"github.com/okian/audiogram/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDatasetPath sets the dataset location, a path or an http(s) URL.
func WithDatasetPath(path string) Option {
	return func(s *Service) {
		s.datasetPath = path
	}
}

// WithDatasetTimeout bounds one dataset load.
func WithDatasetTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.datasetTimeout = d
		}
	}
}

// WithRandomDelay adds an artificial pause before a random pick.
func WithRandomDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.randomDelay = d
		}
	}
}

// WithSummaryConcurrency bounds the goroutines used by Summary.
func WithSummaryConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.summaryConcurrency = n
		}
	}
}

// WithFieldTable sets the field table used to read and analyze records.
func WithFieldTable(t *fieldtable.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.table = t
		}
	}
}

// WithLoader replaces the dataset loader built from the dataset path.
func WithLoader(l Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithStore replaces the in-memory record store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithIDGenerator sets the placeholder id source for manual entries.
func WithIDGenerator(gen func() int64) Option {
	return func(s *Service) {
		s.idGen = gen
	}
}
