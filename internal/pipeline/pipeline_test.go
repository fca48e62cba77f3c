package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadscout/leadscout/internal/enrich"
	"github.com/leadscout/leadscout/internal/model"
	"github.com/leadscout/leadscout/internal/search"
	"github.com/leadscout/leadscout/internal/store"
)

// countingProvider returns fixed candidates and counts invocations.
type countingProvider struct {
	candidates []string
	delay      time.Duration
	calls      atomic.Int64
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Search(ctx context.Context, _ model.Query) ([]string, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.delay):
		}
	}
	return p.candidates, nil
}

// recordEnricher returns a successful company record per candidate, with an
// optional failure set.
type recordEnricher struct {
	fail map[string]bool
}

func (e *recordEnricher) Enrich(_ context.Context, kind model.Kind, candidate string) model.Outcome {
	if e.fail[candidate] {
		return model.Outcome{Candidate: candidate, Err: &model.ItemError{Message: "rate limited", StatusCode: 429}}
	}
	if kind == model.KindCompany {
		return model.Outcome{Candidate: candidate, Record: &model.Record{
			Company: &model.Company{Name: candidate, LinkedInURL: "https://www.linkedin.com/company/" + candidate, InsertedAt: time.Now().UTC()},
		}}
	}
	return model.Outcome{Candidate: candidate, Record: &model.Record{
		Profile: &model.Profile{FirstName: candidate, LastName: "x", LinkedInURL: candidate, InsertedAt: time.Now().UTC()},
	}}
}

func newTestResolver(t *testing.T, provider search.Provider, enricher enrich.Enricher, opts ...Option) (*Resolver, store.Store) {
	t.Helper()

	st, err := store.NewBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	fanout, err := enrich.NewFanOut(enricher, 4)
	require.NoError(t, err)
	t.Cleanup(fanout.Close)

	orch := search.NewOrchestrator([]search.Provider{provider})
	return New(st, orch, fanout, opts...), st
}

func TestResolve_EndToEnd(t *testing.T) {
	provider := &countingProvider{candidates: []string{"acme-corp"}}
	r, _ := newTestResolver(t, provider, &recordEnricher{})

	outcomes, err := r.Resolve(context.Background(), model.NewQuery("acme corp", model.KindCompany))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.True(t, outcomes[0].OK())
	assert.Equal(t, "acme-corp", outcomes[0].Record.Company.Name)
}

func TestResolve_CacheShortCircuit(t *testing.T) {
	provider := &countingProvider{candidates: []string{"acme-corp"}}
	r, _ := newTestResolver(t, provider, &recordEnricher{})
	query := model.NewQuery("acme corp", model.KindCompany)

	first, err := r.Resolve(context.Background(), query)
	require.NoError(t, err)

	second, err := r.Resolve(context.Background(), query)
	require.NoError(t, err)

	// The provider/enrichment path ran exactly once; the second call
	// served the cached result.
	assert.Equal(t, int64(1), provider.calls.Load())
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Record.Company.Name, second[0].Record.Company.Name)
}

func TestResolve_EmptyResultNotCached(t *testing.T) {
	provider := &countingProvider{} // zero candidates
	r, _ := newTestResolver(t, provider, &recordEnricher{})
	query := model.NewQuery("nobody at all", model.KindProfile)

	outcomes, err := r.Resolve(context.Background(), query)
	require.NoError(t, err)
	assert.Empty(t, outcomes)

	_, err = r.Resolve(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, int64(2), provider.calls.Load())
}

func TestResolve_PartialFailureReturnedButNotCached(t *testing.T) {
	provider := &countingProvider{candidates: []string{"c1", "c2", "c3"}}
	enricher := &recordEnricher{fail: map[string]bool{"c2": true}}
	r, _ := newTestResolver(t, provider, enricher)
	query := model.NewQuery("acme corp", model.KindCompany)

	outcomes, err := r.Resolve(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].OK())
	assert.False(t, outcomes[1].OK())
	assert.Equal(t, 429, outcomes[1].Err.StatusCode)
	assert.True(t, outcomes[2].OK())

	// The cached entry holds the successful records only.
	cached, err := r.Resolve(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, cached, 2)
	assert.Equal(t, int64(1), provider.calls.Load())
}

func TestResolve_SingleFlight(t *testing.T) {
	provider := &countingProvider{candidates: []string{"acme-corp"}, delay: 50 * time.Millisecond}
	r, _ := newTestResolver(t, provider, &recordEnricher{})
	query := model.NewQuery("acme corp", model.KindCompany)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes, err := r.Resolve(context.Background(), query)
			assert.NoError(t, err)
			assert.Len(t, outcomes, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), provider.calls.Load())
}

func TestResolve_HistoryFaultPropagates(t *testing.T) {
	provider := &countingProvider{candidates: []string{"acme-corp"}}
	r, _ := newTestResolver(t, provider, &recordEnricher{})
	r.store = &faultyStore{Store: r.store, historyErr: eris.New("cache unreachable")}

	_, err := r.Resolve(context.Background(), model.NewQuery("acme corp", model.KindCompany))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history lookup")
}

// faultyStore injects failures into a real backing store.
type faultyStore struct {
	store.Store
	historyErr error
}

func (f *faultyStore) GetHistory(ctx context.Context, key string) ([]byte, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.Store.GetHistory(ctx, key)
}

func TestEnqueue_TaskLifecycle(t *testing.T) {
	provider := &countingProvider{candidates: []string{"acme-corp"}, delay: 30 * time.Millisecond}
	r, st := newTestResolver(t, provider, &recordEnricher{}, withTaskIDs(func() string { return "task-fixed" }))
	ctx := context.Background()

	id, err := r.Enqueue(ctx, model.NewQuery("acme corp", model.KindCompany))
	require.NoError(t, err)
	assert.Equal(t, "task-fixed", id)

	// The task exists immediately and is not yet terminal with output
	// missing: output appears iff the status is terminal.
	task, err := r.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, task.Status.Terminal(), task.Output != "")

	require.Eventually(t, func() bool {
		task, err := st.GetTask(ctx, id)
		return err == nil && task.Status == model.TaskStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	task, err = r.Status(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, task.Output)

	out, err := model.DecodeTaskOutput(task.Output)
	require.NoError(t, err)
	assert.Equal(t, "acme corp", out.Query)
	require.Len(t, out.Outcomes, 1)
	assert.True(t, out.Outcomes[0].OK())
}

func TestEnqueue_EmptyResolutionCompletes(t *testing.T) {
	provider := &countingProvider{} // all providers empty
	r, st := newTestResolver(t, provider, &recordEnricher{})
	ctx := context.Background()

	id, err := r.Enqueue(ctx, model.NewQuery("nobody", model.KindProfile))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		task, err := st.GetTask(ctx, id)
		return err == nil && task.Status.Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	task, err := st.GetTask(ctx, id)
	require.NoError(t, err)
	// An empty resolution is a completed task, not a failed one.
	assert.Equal(t, model.TaskStatusCompleted, task.Status)

	out, err := model.DecodeTaskOutput(task.Output)
	require.NoError(t, err)
	assert.Empty(t, out.Outcomes)
}

func TestEnqueue_FaultMarksTaskFailed(t *testing.T) {
	provider := &countingProvider{candidates: []string{"acme-corp"}}
	r, st := newTestResolver(t, provider, &recordEnricher{})
	r.store = &faultyStore{Store: st, historyErr: eris.New("cache unreachable")}

	id, err := r.Enqueue(context.Background(), model.NewQuery("acme corp", model.KindCompany))
	require.NoError(t, err)

	ctx := context.Background()
	require.Eventually(t, func() bool {
		task, err := st.GetTask(ctx, id)
		return err == nil && task.Status == model.TaskStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	task, err := st.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, task.Output, "cache unreachable")
}

func TestTasks_ListsAll(t *testing.T) {
	provider := &countingProvider{candidates: []string{"acme-corp"}}
	r, _ := newTestResolver(t, provider, &recordEnricher{})
	ctx := context.Background()

	id1, err := r.Enqueue(ctx, model.NewQuery("acme corp", model.KindCompany))
	require.NoError(t, err)
	id2, err := r.Enqueue(ctx, model.NewQuery("globex", model.KindCompany))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		tasks, err := r.Tasks(ctx)
		if err != nil || len(tasks) != 2 {
			return false
		}
		for _, task := range tasks {
			if !task.Status.Terminal() {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	tasks, err := r.Tasks(ctx)
	require.NoError(t, err)
	ids := []string{tasks[0].ID, tasks[1].ID}
	assert.ElementsMatch(t, []string{id1, id2}, ids)
}

func TestStatus_UnknownTask(t *testing.T) {
	provider := &countingProvider{}
	r, _ := newTestResolver(t, provider, &recordEnricher{})

	_, err := r.Status(context.Background(), "no-such-task")
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}
