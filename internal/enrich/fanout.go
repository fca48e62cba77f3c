package enrich

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadscout/leadscout/internal/model"
)

const defaultWorkers = 8

// FanOut runs an Enricher concurrently over a candidate set on a fixed-size
// worker pool. Pool size is independent of input length, capping outbound
// connection count.
type FanOut struct {
	enricher Enricher
	pool     *ants.Pool
}

// NewFanOut creates a fan-out with the given worker count.
func NewFanOut(enricher Enricher, workers int) (*FanOut, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: create worker pool")
	}
	return &FanOut{enricher: enricher, pool: pool}, nil
}

// Close releases the worker pool.
func (f *FanOut) Close() {
	f.pool.Release()
}

// EnrichAll enriches every candidate and returns one outcome per input, in
// input order regardless of completion order. It is a join-all: the slice
// is returned only when every candidate has an outcome. One candidate's
// failure never cancels or affects its siblings.
func (f *FanOut) EnrichAll(ctx context.Context, kind model.Kind, candidates []string) []model.Outcome {
	if len(candidates) == 0 {
		return []model.Outcome{}
	}

	outcomes := make([]model.Outcome, len(candidates))

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		submitErr := f.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = f.enricher.Enrich(ctx, kind, candidate)
		})
		if submitErr != nil {
			// Pool released or overloaded; the candidate still gets an outcome.
			outcomes[i] = model.Outcome{
				Candidate: candidate,
				Err:       &model.ItemError{Message: "enrichment dispatch failed: " + submitErr.Error()},
			}
			wg.Done()
		}
	}
	wg.Wait()

	ok := 0
	for _, o := range outcomes {
		if o.OK() {
			ok++
		}
	}
	zap.L().Info("enrich: fan-out complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("enriched", ok),
		zap.Int("errors", len(candidates)-ok),
	)

	return outcomes
}
