// internal/source/resolver.go
package source

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"junketops-service/internal/normalize"
	xerrors "junketops-service/internal/pkg/errors"
)

// Strategy is one way of retrieving a logical entity set. The upstream
// API has historically-evolving, redundant and permission-gated
// endpoints for the same data, so capability-equivalent strategies are
// modeled explicitly and tried in priority order.
type Strategy struct {
	Name  string
	Fetch func(ctx context.Context) ([]normalize.Raw, error)
}

// Result is the tagged outcome of one fallback resolution. Records is
// never nil. Err is set only when every strategy in the chain failed;
// an empty collection from a succeeding strategy is a success.
type Result struct {
	Entity  string
	Records []normalize.Raw
	Source  string
	Err     error
}

// Failed reports whether every strategy in the chain failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Warning renders the single aggregate warning shown when a whole chain
// failed, one line per entity set rather than one per strategy.
func (r Result) Warning() string {
	if r.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s unavailable: all sources failed", r.Entity)
}

// Resolver executes ordered strategy chains with per-strategy failure
// isolation. It is stateless across resolutions.
type Resolver struct {
	logger *zap.Logger
}

func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve tries the strategies strictly in order and accepts the first
// that returns without error, skipping the rest. A failing strategy
// never aborts the resolution, it advances the chain. When every
// strategy fails the result is an empty collection tagged with one
// aggregate error, so a report can always be produced.
func (rs *Resolver) Resolve(ctx context.Context, entity string, strategies ...Strategy) Result {
	var failures []error

	for _, s := range strategies {
		records, err := s.Fetch(ctx)
		if err != nil {
			rs.logger.Warn("source strategy failed, trying next",
				zap.String("entity", entity),
				zap.String("strategy", s.Name),
				zap.Error(err))
			failures = append(failures, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		if records == nil {
			records = []normalize.Raw{}
		}
		return Result{Entity: entity, Records: records, Source: s.Name}
	}

	joined := errors.Join(failures...)
	if joined == nil {
		joined = errors.New("no strategies configured")
	}
	rs.logger.Error("all source strategies failed",
		zap.String("entity", entity),
		zap.Int("strategies", len(strategies)),
		zap.Error(joined))

	return Result{
		Entity:  entity,
		Records: []normalize.Raw{},
		Err:     fmt.Errorf("%w: %w", xerrors.ErrAllSourcesFailed, joined),
	}
}

// ResolveConcurrent resolves several independent entity sets at once.
// Each chain runs in its own goroutine and merges nothing until all
// chains settle, so a failure in one set never blocks or fails the
// others.
func (rs *Resolver) ResolveConcurrent(ctx context.Context, chains map[string][]Strategy) map[string]Result {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	out := make(map[string]Result, len(chains))

	for entity, strategies := range chains {
		wg.Add(1)
		go func(entity string, strategies []Strategy) {
			defer wg.Done()
			res := rs.Resolve(ctx, entity, strategies...)
			mu.Lock()
			out[entity] = res
			mu.Unlock()
		}(entity, strategies)
	}

	wg.Wait()
	return out
}

// Dependent fetches a collection scoped to an already-resolved parent.
// A failure degrades to an empty collection with a logged warning and
// is never retried.
func (rs *Resolver) Dependent(ctx context.Context, entity string, fetch func(ctx context.Context) ([]normalize.Raw, error)) []normalize.Raw {
	records, err := fetch(ctx)
	if err != nil {
		rs.logger.Warn("dependent fetch failed, using empty collection",
			zap.String("entity", entity),
			zap.Error(err))
		return []normalize.Raw{}
	}
	if records == nil {
		records = []normalize.Raw{}
	}
	return records
}
