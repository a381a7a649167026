package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/audiogram/internal/domain/model"
	"github.com/okian/audiogram/internal/domain/severity"
	"github.com/okian/audiogram/pkg/logger"
	"github.com/okian/audiogram/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Summary aggregates whole-ear classifications over the loaded cohort.
type Summary struct {
	Participants int                                          `json:"participants"`
	Freqs        [model.NumFrequencies]int                    `json:"freqs"`
	Categories   []severity.Category                          `json:"categories"`
	Counts       model.PerEar[map[severity.Category]int]      `json:"counts"`
	NoData       model.PerEar[int]                            `json:"no_data"`
	MeanDB       model.PerEar[[model.NumFrequencies]*float64] `json:"mean_db"`
	Measured     model.PerEar[[model.NumFrequencies]int]      `json:"measured"`
}

type partial struct {
	counts [2]map[severity.Category]int
	noData [2]int
	sums   [2][model.NumFrequencies]float64
	n      [2][model.NumFrequencies]int
}

func newPartial() *partial {
	return &partial{counts: [2]map[severity.Category]int{{}, {}}}
}

func (p *partial) add(res model.AnalysisResult) {
	for ei, e := range model.Ears {
		if res.PresentCount.Get(e) == 0 {
			p.noData[ei]++
		}
		p.counts[ei][res.Loss.Get(e)]++
		for i, t := range res.Air.Ear(e) {
			if v, ok := t.Get(); ok {
				p.sums[ei][i] += v
				p.n[ei][i]++
			}
		}
	}
}

func (p *partial) merge(o *partial) {
	for ei := range p.counts {
		for c, n := range o.counts[ei] {
			p.counts[ei][c] += n
		}
		p.noData[ei] += o.noData[ei]
		for i := range p.sums[ei] {
			p.sums[ei][i] += o.sums[ei][i]
			p.n[ei][i] += o.n[ei][i]
		}
	}
}

// Summary classifies every loaded record and aggregates the results. Records
// are split into chunks analyzed by at most summaryConcurrency goroutines.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	start := time.Now()
	records := s.store.All(ctx)
	if len(records) == 0 {
		return Summary{}, ErrNotLoaded
	}

	workers := s.summaryConcurrency
	if workers < 1 {
		workers = 1
	}
	chunk := (len(records) + workers*4 - 1) / (workers * 4)
	if chunk < 1 {
		chunk = 1
	}

	total := newPartial()
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for off := 0; off < len(records); off += chunk {
		part := records[off:min(off+chunk, len(records))]
		g.Go(func() error {
			p := newPartial()
			for _, rec := range part {
				if err := gctx.Err(); err != nil {
					return err
				}
				p.add(s.assembler.Assemble(rec))
			}
			mu.Lock()
			total.merge(p)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	out := Summary{
		Participants: len(records),
		Freqs:        model.Frequencies,
		Categories:   severity.Categories(),
	}
	for ei, e := range model.Ears {
		out.Counts.Set(e, total.counts[ei])
		out.NoData.Set(e, total.noData[ei])
		var means [model.NumFrequencies]*float64
		for i := range means {
			if n := total.n[ei][i]; n > 0 {
				m := total.sums[ei][i] / float64(n)
				means[i] = &m
			}
		}
		out.MeanDB.Set(e, means)
		out.Measured.Set(e, total.n[ei])
	}

	took := time.Since(start)
	metrics.RecordSummaryDuration(float64(took.Microseconds()) / 1000)
	if s.logger != nil {
		s.logger.Debug(ctx, "cohort summary computed",
			logger.Int("participants", len(records)),
			logger.Int("workers", workers),
			logger.Duration("took", took),
		)
	}
	return out, nil
}
