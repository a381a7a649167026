// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/audiogram/internal/adapters/repository"
	"github.com/okian/audiogram/internal/adapters/source"
	"github.com/okian/audiogram/internal/domain/analysis"
	"github.com/okian/audiogram/internal/domain/chart"
	"github.com/okian/audiogram/internal/domain/fieldtable"
	"github.com/okian/audiogram/internal/domain/model"
	"github.com/okian/audiogram/internal/domain/severity"
	"github.com/okian/audiogram/pkg/logger"
	"github.com/okian/audiogram/pkg/metrics"
)

// Analysis kinds used in metrics and responses.
const (
	KindDataset = "dataset"
	KindManual  = "manual"
)

// Loader fetches the dataset.
type Loader interface {
	Load(ctx context.Context) ([]model.RawRecord, source.Stats, error)
	Location() string
}

// Analysis is one analysis response: the result plus its chart configuration.
type Analysis struct {
	ID     string               `json:"analysis_id"`
	Kind   string               `json:"kind"`
	Result model.AnalysisResult `json:"result"`
	Chart  chart.Config         `json:"chart"`
}

// DatasetStatus describes the currently loaded dataset.
type DatasetStatus struct {
	Loaded    bool                  `json:"loaded"`
	Location  string                `json:"location"`
	Records   int                   `json:"records"`
	Layout    source.Layout         `json:"layout,omitempty"`
	Version   string                `json:"table_version,omitempty"`
	Rows      int                   `json:"rows"`
	Rejected  map[source.Reason]int `json:"rejected"`
	LoadedAt  *time.Time            `json:"loaded_at,omitempty"`
	LastError string                `json:"last_error,omitempty"`
}

// Service implements the API dependencies for the audiogram analyzer.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	loader    Loader
	assembler *analysis.Assembler
	table     *fieldtable.Table

	// Configuration
	datasetPath        string
	datasetTimeout     time.Duration
	randomDelay        time.Duration
	summaryConcurrency int
	idGen              func() int64

	// State
	started bool
	status  DatasetStatus

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		datasetTimeout:     source.DefaultTimeout,
		summaryConcurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.table == nil {
		s.table = fieldtable.Default()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.assembler = analysis.New(analysis.WithFieldTable(s.table), analysis.WithIDGenerator(s.idGen))
	return s
}

// Start initializes the service and performs the first dataset load. A failed
// load is logged and reported through Dataset; manual analysis keeps working.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.loader == nil {
		s.loader = source.NewLoader(s.datasetPath,
			source.WithTimeout(s.datasetTimeout),
			source.WithFieldTable(s.table),
			source.WithLogger(s.logger.Named("source")),
		)
	}
	s.status.Location = s.loader.Location()
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting audiogram service...",
		logger.String("dataset", s.loader.Location()),
		logger.String("table_version", s.table.Version),
	)

	if err := s.Load(ctx); err != nil {
		s.logger.Warn(ctx, "initial dataset load failed", logger.Error(err))
	}

	s.logger.Info(ctx, "audiogram service started",
		logger.Int("records", s.store.Len(ctx)),
		logger.Duration("random_delay", s.randomDelay),
		logger.Int("summary_concurrency", s.summaryConcurrency),
	)
	return nil
}

// Stop marks the service as stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "audiogram service stopped")
}

// Load fetches the dataset and replaces the loaded records. On failure the
// previously loaded records, if any, stay in place.
func (s *Service) Load(ctx context.Context) error {
	s.mu.RLock()
	loader := s.loader
	s.mu.RUnlock()
	if loader == nil {
		return ErrNotLoaded
	}

	start := time.Now()
	records, stats, err := loader.Load(ctx)
	metrics.RecordDatasetLoadDuration(float64(time.Since(start).Milliseconds()))
	for reason, n := range stats.Rejected {
		metrics.RecordDatasetRejected(string(reason), n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		metrics.RecordDatasetLoadFailure(loadErrorType(err))
		metrics.RecordErrorByComponent("source", loadErrorType(err))
		s.status.LastError = err.Error()
		return err
	}

	s.store.Replace(ctx, records)
	now := time.Now()
	s.status = DatasetStatus{
		Loaded:   true,
		Location: loader.Location(),
		Records:  len(records),
		Layout:   stats.Layout,
		Version:  stats.Version,
		Rows:     stats.Rows,
		Rejected: stats.Rejected,
		LoadedAt: &now,
	}
	metrics.UpdateDatasetLastLoad(float64(now.Unix()))
	if s.logger != nil {
		s.logger.Info(ctx, "dataset loaded",
			logger.Int("records", len(records)),
			logger.Int("rejected", stats.RejectedTotal()),
			logger.Duration("took", time.Since(start)),
		)
	}
	return nil
}

func loadErrorType(err error) string {
	switch {
	case errors.Is(err, source.ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, source.ErrNoRecords):
		return "no_records"
	case errors.Is(err, source.ErrUnknownLayout):
		return "unknown_layout"
	default:
		return "internal"
	}
}

// Dataset returns the status of the loaded dataset.
func (s *Service) Dataset(_ context.Context) DatasetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	rejected := make(map[source.Reason]int, len(st.Rejected))
	for k, v := range st.Rejected {
		rejected[k] = v
	}
	st.Rejected = rejected
	return st
}

// First analyzes the first loaded record.
func (s *Service) First(ctx context.Context) (Analysis, error) {
	rec, err := s.store.First(ctx)
	if err != nil {
		return Analysis{}, s.lookupError(err)
	}
	return s.analyze(ctx, rec), nil
}

// Random analyzes a uniformly chosen record after the configured delay.
func (s *Service) Random(ctx context.Context) (Analysis, error) {
	if s.randomDelay > 0 {
		select {
		case <-ctx.Done():
			return Analysis{}, ctx.Err()
		case <-time.After(s.randomDelay):
		}
	}
	rec, err := s.store.Random(ctx)
	if err != nil {
		return Analysis{}, s.lookupError(err)
	}
	return s.analyze(ctx, rec), nil
}

// ByID analyzes the record with participant id.
func (s *Service) ByID(ctx context.Context, id int64) (Analysis, error) {
	rec, err := s.store.ByID(ctx, id)
	if err != nil {
		return Analysis{}, s.lookupError(err)
	}
	return s.analyze(ctx, rec), nil
}

// At analyzes the record at position i in load order.
func (s *Service) At(ctx context.Context, i int) (Analysis, error) {
	rec, err := s.store.At(ctx, i)
	if err != nil {
		return Analysis{}, s.lookupError(err)
	}
	return s.analyze(ctx, rec), nil
}

// AnalyzeManual analyzes a user-entered audiogram. It does not need a loaded
// dataset.
func (s *Service) AnalyzeManual(ctx context.Context, entry model.ManualEntry) Analysis {
	res := s.assembler.AssembleManual(entry)
	return s.wrap(ctx, KindManual, res)
}

// Bands returns the severity classification table.
func (s *Service) Bands() []severity.Band {
	return severity.Bands()
}

func (s *Service) analyze(ctx context.Context, rec model.RawRecord) Analysis {
	return s.wrap(ctx, KindDataset, s.assembler.Assemble(rec))
}

func (s *Service) wrap(ctx context.Context, kind string, res model.AnalysisResult) Analysis {
	metrics.RecordAnalysis(kind)
	for _, e := range model.Ears {
		metrics.RecordClassification(e.String(), string(res.Loss.Get(e)))
	}
	if s.logger != nil {
		s.logger.Debug(ctx, "audiogram analyzed",
			logger.String("kind", kind),
			logger.Int64("participant", res.ParticipantID),
			logger.String("loss_re", string(res.Loss.RE)),
			logger.String("loss_le", string(res.Loss.LE)),
		)
	}
	return Analysis{
		ID:     uuid.NewString(),
		Kind:   kind,
		Result: res,
		Chart:  chart.Build(res),
	}
}

// lookupError turns an empty store into ErrNotLoaded.
func (s *Service) lookupError(err error) error {
	if errors.Is(err, repository.ErrEmpty) {
		return ErrNotLoaded
	}
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":            s.started,
		"datasetLoaded":      s.status.Loaded,
		"records":            s.store.Len(ctx),
		"tableVersion":       s.table.Version,
		"randomDelayMs":      s.randomDelay.Milliseconds(),
		"summaryConcurrency": s.summaryConcurrency,
	}
	if s.status.LastError != "" {
		stats["lastError"] = s.status.LastError
	}
	return stats
}
