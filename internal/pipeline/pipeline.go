// Package pipeline composes the history cache, search orchestrator, and
// enrichment fan-out into one query resolution flow, exposed synchronously
// and as backgrounded tasks.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/leadscout/leadscout/internal/enrich"
	"github.com/leadscout/leadscout/internal/model"
	"github.com/leadscout/leadscout/internal/search"
	"github.com/leadscout/leadscout/internal/store"
)

// Resolver runs the cache → orchestrate → enrich → cache-write flow. The
// synchronous Resolve and the backgrounded Enqueue share the same logic;
// only the calling convention differs.
type Resolver struct {
	store       store.Store
	search      *search.Orchestrator
	fanout      *enrich.FanOut
	group       singleflight.Group
	taskTimeout time.Duration
	newTaskID   func() string
}

// Option configures the resolver.
type Option func(*Resolver)

// WithTaskTimeout bounds one backgrounded resolution end to end.
func WithTaskTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.taskTimeout = d
	}
}

// withTaskIDs overrides task ID generation in tests.
func withTaskIDs(gen func() string) Option {
	return func(r *Resolver) {
		r.newTaskID = gen
	}
}

// New creates a Resolver over a store, orchestrator, and fan-out.
func New(st store.Store, orch *search.Orchestrator, fanout *enrich.FanOut, opts ...Option) *Resolver {
	r := &Resolver{
		store:       st,
		search:      orch,
		fanout:      fanout,
		taskTimeout: 10 * time.Minute,
		newTaskID:   func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve runs one end-to-end resolution. A well-formed history entry
// short-circuits the provider and enrichment work entirely; otherwise the
// query fans out to the providers, every deduplicated candidate is
// enriched, and the successful records are written back to the history
// cache. Zero candidates is a valid empty result, not an error.
//
// Empty resolutions are not cached: a cached empty set would permanently
// mask transient provider failures, so the next identical query re-runs
// the providers.
func (r *Resolver) Resolve(ctx context.Context, query model.Query) ([]model.Outcome, error) {
	key := query.HistoryKey()
	log := zap.L().With(zap.String("key", key))

	payload, err := r.store.GetHistory(ctx, key)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: history lookup")
	}
	if len(payload) > 0 {
		records, decodeErr := model.DecodeRecords(payload)
		if decodeErr != nil {
			// A corrupt entry is overwritten by the fresh resolution below.
			log.Warn("pipeline: discarding malformed history entry", zap.Error(decodeErr))
		} else if len(records) > 0 {
			log.Info("pipeline: history hit", zap.Int("records", len(records)))
			return outcomesFromRecords(records), nil
		}
	}

	// Concurrent identical queries share one fresh resolution.
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.resolveFresh(ctx, query, key)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Outcome), nil
}

func (r *Resolver) resolveFresh(ctx context.Context, query model.Query, key string) ([]model.Outcome, error) {
	log := zap.L().With(zap.String("key", key))

	candidates := r.search.Search(ctx, query)
	if len(candidates) == 0 {
		log.Info("pipeline: no candidates found")
		return []model.Outcome{}, nil
	}

	outcomes := r.fanout.EnrichAll(ctx, query.Kind, candidates)

	// The history entry is written only once every candidate has an
	// outcome; error outcomes are returned to the caller but not cached.
	records := model.Records(outcomes)
	if len(records) > 0 {
		payload, err := model.EncodeRecords(records)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: encode history")
		}
		if err := r.store.PutHistory(ctx, key, payload); err != nil {
			return nil, eris.Wrap(err, "pipeline: history write")
		}
	}

	return outcomes, nil
}

// outcomesFromRecords rebuilds cached records as successful outcomes, keyed
// by each record's own identifier.
func outcomesFromRecords(records []model.Record) []model.Outcome {
	outcomes := make([]model.Outcome, len(records))
	for i := range records {
		candidate := ""
		switch {
		case records[i].Profile != nil:
			candidate = records[i].Profile.LinkedInURL
		case records[i].Company != nil:
			candidate = records[i].Company.LinkedInURL
		}
		outcomes[i] = model.Outcome{Candidate: candidate, Record: &records[i]}
	}
	return outcomes
}

// Enqueue creates a queued task and starts its resolution on a background
// worker. The call returns the task ID immediately and never blocks on
// pipeline completion.
func (r *Resolver) Enqueue(ctx context.Context, query model.Query) (string, error) {
	id := r.newTaskID()
	if err := r.store.SaveTask(ctx, model.Task{ID: id, Status: model.TaskStatusQueued}); err != nil {
		return "", eris.Wrap(err, "pipeline: create task")
	}

	go r.process(id, query)
	return id, nil
}

// process drives one task through queued → processing → completed|failed.
// It runs detached from the enqueueing request's context.
func (r *Resolver) process(id string, query model.Query) {
	ctx, cancel := context.WithTimeout(context.Background(), r.taskTimeout)
	defer cancel()

	log := zap.L().With(zap.String("task_id", id), zap.String("key", query.HistoryKey()))

	r.transition(ctx, log, id, model.TaskStatusProcessing, "")

	outcomes, err := r.Resolve(ctx, query)
	if err != nil {
		log.Error("pipeline: task failed", zap.Error(err))
		fault, _ := json.Marshal(model.TaskFault{Error: err.Error()})
		r.transition(ctx, log, id, model.TaskStatusFailed, string(fault))
		return
	}

	output, err := json.Marshal(model.TaskOutput{
		Query:    query.Text,
		Kind:     query.Kind,
		Outcomes: outcomes,
	})
	if err != nil {
		fault, _ := json.Marshal(model.TaskFault{Error: err.Error()})
		r.transition(ctx, log, id, model.TaskStatusFailed, string(fault))
		return
	}

	r.transition(ctx, log, id, model.TaskStatusCompleted, string(output))
	log.Info("pipeline: task complete", zap.Int("outcomes", len(outcomes)))
}

func (r *Resolver) transition(ctx context.Context, log *zap.Logger, id string, status model.TaskStatus, output string) {
	if err := r.store.SaveTask(ctx, model.Task{ID: id, Status: status, Output: output}); err != nil {
		log.Warn("pipeline: failed to update task status",
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

// Status reports one task's current lifecycle state.
func (r *Resolver) Status(ctx context.Context, id string) (*model.Task, error) {
	return r.store.GetTask(ctx, id)
}

// Tasks lists every known task.
func (r *Resolver) Tasks(ctx context.Context) ([]model.Task, error) {
	ids, err := r.store.ListTaskIDs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list tasks")
	}

	tasks := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		task, err := r.store.GetTask(ctx, id)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: load task %s", id)
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}
