// Package source loads the audiometry dataset from a file or an HTTP URL and
// turns it into raw records.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/okian/audiogram/internal/domain/fieldtable"
	"github.com/okian/audiogram/internal/domain/model"
	"github.com/okian/audiogram/pkg/logger"
)

// Constants for dataset fetching.
const (
	DefaultTimeout = 30 * time.Second
	maxBodyBytes   = 64 << 20
)

// Loader fetches and parses a dataset.
type Loader struct {
	location string
	timeout  time.Duration
	client   *http.Client
	table    *fieldtable.Table
	log      logger.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout bounds a whole load, fetch and parse included.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithHTTPClient sets the client used for http(s) locations.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithFieldTable sets the field table rows are read with.
func WithFieldTable(t *fieldtable.Table) Option {
	return func(l *Loader) {
		if t != nil {
			l.table = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader returns a Loader for location, a filesystem path or an
// http(s):// URL.
func NewLoader(location string, opts ...Option) *Loader {
	l := &Loader{
		location: location,
		timeout:  DefaultTimeout,
		client:   &http.Client{},
		table:    fieldtable.Default(),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Location returns the configured dataset location.
func (l *Loader) Location() string { return l.location }

// IsRemote reports whether the location is fetched over HTTP.
func (l *Loader) IsRemote() bool {
	lower := strings.ToLower(l.location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Load fetches the dataset and parses it. Fetch failures and timeouts wrap
// ErrSourceUnavailable; a dataset with no accepted rows returns ErrNoRecords.
func (l *Loader) Load(ctx context.Context) ([]model.RawRecord, Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	body, err := l.open(ctx)
	if err != nil {
		return nil, Stats{}, err
	}
	defer func() { _ = body.Close() }()

	parser := NewParser(l.table, WithParserLogger(l.log))
	records, stats, err := parser.Parse(ctx, io.LimitReader(body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, stats, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, l.location, ctx.Err())
		}
		return nil, stats, err
	}

	l.log.Info(ctx, "dataset parsed",
		logger.String("layout", string(stats.Layout)),
		logger.Int("rows", stats.Rows),
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.RejectedTotal()),
	)
	return records, stats, nil
}

func (l *Loader) open(ctx context.Context) (io.ReadCloser, error) {
	if l.location == "" {
		return nil, fmt.Errorf("%w: no dataset location", ErrSourceUnavailable)
	}
	if !l.IsRemote() {
		f, err := os.Open(l.location)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.location, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "text/html,text/csv,text/plain;q=0.9,*/*;q=0.8")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned status %d", ErrSourceUnavailable, l.location, resp.StatusCode)
	}
	return resp.Body, nil
}
