package search

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/leadscout/leadscout/internal/model"
)

// Orchestrator fans a query out to its registered providers and merges
// their candidate lists in registration order, deduplicated first-seen.
type Orchestrator struct {
	providers []Provider
	timeout   time.Duration
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithProviderTimeout bounds each provider call independently.
func WithProviderTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// NewOrchestrator creates an orchestrator over an ordered provider list.
func NewOrchestrator(providers []Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		providers: providers,
		timeout:   15 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Providers returns the registered provider names in order.
func (o *Orchestrator) Providers() []string {
	names := make([]string, len(o.providers))
	for i, p := range o.providers {
		names[i] = p.Name()
	}
	return names
}

// Search queries every provider concurrently and returns the merged,
// deduplicated candidate list. Provider order is preserved in the merged
// output. A failing provider contributes zero candidates and never fails
// the orchestration; zero candidates overall is a valid empty result, not
// an error.
func (o *Orchestrator) Search(ctx context.Context, query model.Query) []string {
	log := zap.L().With(zap.String("query", query.Text), zap.String("kind", string(query.Kind)))

	perProvider := make([][]string, len(o.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range o.providers {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, o.timeout)
			defer cancel()

			candidates, err := p.Search(pctx, query)
			if err != nil {
				log.Warn("search: provider failed",
					zap.String("provider", p.Name()),
					zap.Error(err),
				)
				return nil // swallowed at the orchestrator boundary
			}
			perProvider[i] = candidates
			return nil
		})
	}
	_ = g.Wait()

	var merged []string
	for _, candidates := range perProvider {
		merged = append(merged, candidates...)
	}

	deduped := dedupeFirstSeen(merged)
	log.Info("search: merged provider results",
		zap.Int("providers", len(o.providers)),
		zap.Int("raw", len(merged)),
		zap.Int("candidates", len(deduped)),
	)
	return deduped
}

// dedupeFirstSeen removes duplicate identifiers, keeping first occurrence
// order.
func dedupeFirstSeen(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
