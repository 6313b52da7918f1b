package state

import (
	"context"
	"sync"
	"time"

	"github.com/lerian-tools/conformist/internal/config"
	"github.com/lerian-tools/conformist/internal/conformerr"
	"github.com/lerian-tools/conformist/internal/observability/logging"
)

// Sampler captures StateSnapshots from a Source according to a
// StateTrackingConfig (§4.4). Kind sampling fans out with a counting
// semaphore bounded by MaxParallelism, the same worker-pool shape as the
// teacher's async job processor, sized to a fixed degree of concurrency
// rather than an unbounded goroutine-per-item burst.
type Sampler struct {
	Source  Source
	Config  config.StateTrackingConfig
	Timeout time.Duration
	Log     *logging.EnhancedLogger
}

// NewSampler builds a Sampler with a component-tagged logger.
func NewSampler(source Source, cfg config.StateTrackingConfig, timeout time.Duration, log *logging.EnhancedLogger) *Sampler {
	if log == nil {
		log = logging.New("noop", 0)
	}
	return &Sampler{Source: source, Config: cfg, Timeout: timeout, Log: log.WithComponent("state_sampler")}
}

// Capture takes one StateSnapshot (§4.4). A per-kind sample is retried once
// on transient error; persistent failure omits the kind from Kinds but
// leaves it in Tracked.
func (s *Sampler) Capture(ctx context.Context) (*Snapshot, error) {
	kinds, err := s.trackedKinds(ctx)
	if err != nil {
		return nil, conformerr.StateSource("sampler", "list entity kinds", err)
	}

	snap := &Snapshot{
		Timestamp: time.Now(),
		Kinds:     make(map[string]KindSample, len(kinds)),
		Tracked:   kinds,
	}

	parallelism := s.Config.MaxParallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	sem := make(chan struct{}, parallelism)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, kind := range kinds {
		kind := kind
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			sample, ok := s.sampleKind(ctx, kind)
			if !ok {
				return
			}
			mu.Lock()
			snap.Kinds[kind] = sample
			mu.Unlock()
		}()
	}
	wg.Wait()

	return snap, nil
}

func (s *Sampler) trackedKinds(ctx context.Context) ([]string, error) {
	descriptors, err := s.Source.EntityKinds(ctx)
	if err != nil {
		return nil, err
	}

	includeOnly := toSet(s.Config.IncludeOnly)
	exclude := toSet(s.Config.Exclude)

	var kinds []string
	for _, d := range descriptors {
		if len(includeOnly) > 0 {
			if _, ok := includeOnly[d.Name]; !ok {
				continue
			}
		} else if _, ok := exclude[d.Name]; ok {
			continue
		}
		kinds = append(kinds, d.Name)
	}
	return kinds, nil
}

func (s *Sampler) sampleKind(ctx context.Context, kind string) (KindSample, bool) {
	count, err := withRetry(s, ctx, func(ctx context.Context) (int, error) {
		return s.Source.Count(ctx, kind)
	})
	if err != nil {
		s.Log.Warn("dropping entity kind after persistent sampling failure", "kind", kind, "error", err)
		return KindSample{}, false
	}

	sample := KindSample{Count: count}
	if !s.Config.TrackEntityChecksums {
		return sample, true
	}

	records, err := withRetry(s, ctx, func(ctx context.Context) ([]Record, error) {
		return s.Source.ListAll(ctx, kind)
	})
	if err != nil {
		s.Log.Warn("dropping entity kind after persistent checksum failure", "kind", kind, "error", err)
		return KindSample{}, false
	}
	sample.Checksum = checksumRecords(records)
	return sample, true
}

// withRetry runs fn once, and once more on error, honoring ctx cancellation
// and s.Timeout around each attempt.
func withRetry[T any](s *Sampler, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		callCtx, cancel := s.withTimeout(ctx)
		v, err := fn(callCtx)
		cancel()
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return zero, lastErr
}

func (s *Sampler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
