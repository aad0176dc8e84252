package production_test

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/produccion-flow/internal/domain"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
)

// memBatchRepo repositorio en memoria con la misma semántica de Apply que los adaptadores.
type memBatchRepo struct {
	mu      sync.Mutex
	order   []string
	batches map[string]*entity.Batch
	applied int
	failGet error
}

func newMemBatchRepo(batches ...*entity.Batch) *memBatchRepo {
	r := &memBatchRepo{batches: map[string]*entity.Batch{}}
	for _, b := range batches {
		r.order = append(r.order, b.DispatchID)
		r.batches[b.DispatchID] = b
	}
	return r
}

func (r *memBatchRepo) GetByDispatchID(_ context.Context, id string) (*entity.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
	b, ok := r.batches[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (r *memBatchRepo) List(context.Context) ([]*entity.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Batch, 0, len(r.order))
	for _, id := range r.order {
		c := *r.batches[id]
		out = append(out, &c)
	}
	return out, nil
}

func (r *memBatchRepo) Create(_ context.Context, b *entity.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[b.DispatchID]; ok {
		return domain.ErrConflict
	}
	r.order = append(r.order, b.DispatchID)
	r.batches[b.DispatchID] = b
	return nil
}

func (r *memBatchRepo) ApplyMutation(_ context.Context, m *production.Mutation) (*entity.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[m.DispatchID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	updated, rem, applied := production.Apply(b, m, time.Now())
	if !applied {
		return b, nil
	}
	r.applied++
	r.batches[m.DispatchID] = updated
	if rem != nil {
		r.order = append(r.order, rem.DispatchID)
		r.batches[rem.DispatchID] = rem
	}
	return updated, nil
}

func (r *memBatchRepo) UpdateStageStatus(_ context.Context, id string, stage entity.StageID, encoded string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.SetStageStatus(stage, encoded)
	return nil
}

func (r *memBatchRepo) get(id string) *entity.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[id]
}

// memPlanRepo planes fijos; errs se devuelven en orden antes de responder.
type memPlanRepo struct {
	mu    sync.Mutex
	plans []entity.ProductionPlan
	errs  []error
	calls int
}

func (r *memPlanRepo) List(context.Context) ([]entity.ProductionPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return nil, err
	}
	return r.plans, nil
}

func (r *memPlanRepo) set(plans []entity.ProductionPlan) {
	r.mu.Lock()
	r.plans = plans
	r.mu.Unlock()
}

// countingRecorder FlowRecorder que cuenta eventos.
type countingRecorder struct {
	mu        sync.Mutex
	completed int
	partial   int
	rejected  []error
	polls     int
	pollFails int
}

func (c *countingRecorder) StageCompleted(_ entity.StageID, partial bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed++
	if partial {
		c.partial++
	}
}

func (c *countingRecorder) Rejected(_ entity.StageID, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected = append(c.rejected, cause)
}

func (c *countingRecorder) PlanPoll(err error, _ time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls++
	if err != nil {
		c.pollFails++
	}
}

func intPtr(v int) *int { return &v }
