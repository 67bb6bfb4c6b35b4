// Package extraction runs fingerprint extraction over a batch of
// tracks using a bounded worker pool.
package extraction

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gatekeeper/internal/domain/extract"
	"github.com/okian/gatekeeper/internal/domain/feature"
	"github.com/okian/gatekeeper/internal/domain/profile"
	"github.com/okian/gatekeeper/internal/domain/types"
	"github.com/okian/gatekeeper/pkg/logger"
	"github.com/okian/gatekeeper/pkg/metrics"
)

// Source is one track submitted for analysis. Exactly one of Clip or
// Vector should be set: Clip carries decoded audio for extraction,
// Vector carries a precomputed fingerprint that only needs validation.
// Reject marks a source already invalidated upstream (e.g. a malformed
// fingerprint payload); its message becomes the rejection reason.
type Source struct {
	Label  string
	Clip   *extract.Clip
	Vector *feature.Vector
	Reject error
}

// Rejection records why a source was dropped from the batch.
type Rejection = types.Rejection

// Extractor computes a fingerprint from decoded audio.
type Extractor interface {
	Extract(ctx context.Context, clip extract.Clip) (feature.Vector, error)
}

// Pool fans a batch of sources across a fixed number of workers.
//
// Results keep the submission order regardless of which worker
// finished first. A failed source never fails the batch; it lands in
// the rejection list and the rest continue. The one exception is when
// so many sources have failed that the batch can no longer reach the
// minimum viable size, at which point remaining work is abandoned.
type Pool struct {
	extractor Extractor
	workers   int
	minViable int
	logger    logger.Logger
}

// NewPool creates a pool with configuration options.
func NewPool(extractor Extractor, opts ...Option) *Pool {
	p := &Pool{
		extractor: extractor,
		workers:   runtime.NumCPU(),
		minViable: profile.MinTracks,
		logger:    logger.Get().Named("extraction"),
	}

	for _, opt := range opts {
		opt(p)
	}

	metrics.UpdateWorkerCount(p.workers)
	return p
}

// result holds the outcome for one source, indexed by submission order.
type result struct {
	vector feature.Vector
	reason string
	failed bool
}

// Run processes every source and returns the accepted fingerprints in
// submission order plus a rejection entry for each dropped source.
func (p *Pool) Run(ctx context.Context, sources []Source) ([]feature.Vector, []Rejection) {
	started := time.Now()
	defer func() {
		metrics.RecordBatchDuration(float64(time.Since(started).Milliseconds()))
	}()

	if len(sources) == 0 {
		return nil, nil
	}

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Once failures exceed this, MinTracks is out of reach and the
	// remaining extractions are wasted work.
	allowedFailures := int64(len(sources) - p.minViable)
	var failures atomic.Int64
	var aborted atomic.Bool

	results := make([]result, len(sources))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				p.process(workCtx, sources[idx], &results[idx])
				if results[idx].failed && failures.Add(1) > allowedFailures {
					if aborted.CompareAndSwap(false, true) {
						metrics.RecordBatchAbort()
						p.logger.Warn(workCtx, "batch no longer viable, abandoning remaining sources",
							logger.Int("failures", int(failures.Load())),
							logger.Int("batch_size", len(sources)),
						)
					}
					cancel()
				}
			}
		}()
	}

feed:
	for i := range sources {
		select {
		case jobs <- i:
		case <-workCtx.Done():
			// Mark everything not yet handed out.
			for j := i; j < len(sources); j++ {
				results[j] = result{failed: true, reason: "batch aborted"}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	accepted := make([]feature.Vector, 0, len(sources))
	var rejected []Rejection
	for i, r := range results {
		if r.failed {
			rejected = append(rejected, Rejection{Source: sources[i].Label, Reason: r.reason})
			continue
		}
		accepted = append(accepted, r.vector)
	}
	return accepted, rejected
}

// process resolves a single source into its slot in results.
func (p *Pool) process(ctx context.Context, src Source, out *result) {
	if err := ctx.Err(); err != nil {
		*out = result{failed: true, reason: "batch aborted"}
		return
	}

	switch {
	case src.Reject != nil:
		metrics.RecordDecodeFailure()
		*out = result{failed: true, reason: src.Reject.Error()}

	case src.Vector != nil:
		if err := src.Vector.Validate(); err != nil {
			metrics.RecordDecodeFailure()
			*out = result{failed: true, reason: err.Error()}
			return
		}
		v := *src.Vector
		if v.Source == "" {
			v.Source = src.Label
		}
		metrics.RecordTrackAnalyzed()
		*out = result{vector: v}

	case src.Clip != nil:
		start := time.Now()
		v, err := p.extractor.Extract(ctx, *src.Clip)
		metrics.RecordExtractionLatency(float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.RecordDecodeFailure()
			p.logger.Warn(ctx, "source not analyzable",
				logger.String("source", src.Label),
				logger.Error(err),
			)
			*out = result{failed: true, reason: err.Error()}
			return
		}
		if v.Source == "" {
			v.Source = src.Label
		}
		metrics.RecordTrackAnalyzed()
		*out = result{vector: v}

	default:
		metrics.RecordDecodeFailure()
		*out = result{failed: true, reason: "no audio or fingerprint provided"}
	}
}
