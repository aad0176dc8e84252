package production

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/jhoicas/produccion-flow/internal/domain"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/repository"
)

const (
	defaultPollInterval = 5 * time.Second
	pollMaxElapsed      = 20 * time.Second
)

// PlanSnapshot última lista de planes leída y el momento de la lectura.
type PlanSnapshot struct {
	Plans     []entity.ProductionPlan
	FetchedAt time.Time
}

// PlanPoller mantiene en memoria la lista de planes de producción, releída cada intervalo.
// Los planes los escribe otro sistema: la foto puede estar desactualizada y aun así
// es la que usan las compuertas.
type PlanPoller struct {
	repo     repository.ProductionPlanRepository
	interval time.Duration
	recorder FlowRecorder
	log      zerolog.Logger
	now      func() time.Time
	newBO    func() backoff.BackOff

	mu     sync.RWMutex
	snap   PlanSnapshot
	loaded bool
}

// NewPlanPoller construye el poller. interval <= 0 usa 5s.
func NewPlanPoller(repo repository.ProductionPlanRepository, interval time.Duration, recorder FlowRecorder, log zerolog.Logger) *PlanPoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &PlanPoller{
		repo:     repo,
		interval: interval,
		recorder: recorder,
		log:      log,
		now:      time.Now,
		newBO:    newPollBackoff,
	}
}

// newPollBackoff las implementaciones de BackOff tienen estado: una instancia por refresco.
func newPollBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = pollMaxElapsed
	return bo
}

// WithBackoff reemplaza la política de reintentos (tests).
func (p *PlanPoller) WithBackoff(newBO func() backoff.BackOff) *PlanPoller {
	p.newBO = newBO
	return p
}

// Run refresca en cada tick hasta que ctx se cancele. Un fallo no detiene el ciclo:
// se conserva la foto anterior.
func (p *PlanPoller) Run(ctx context.Context) error {
	if err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
		p.log.Warn().Err(err).Msg("primera lectura de planes fallida")
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
				p.log.Warn().Err(err).Msg("lectura de planes fallida, se conserva la anterior")
			}
		}
	}
}

// Refresh lee los planes con reintentos exponenciales y reemplaza la foto.
// ErrInvalidInput del repositorio no se reintenta.
func (p *PlanPoller) Refresh(ctx context.Context) error {
	var plans []entity.ProductionPlan
	err := backoff.Retry(func() error {
		list, err := p.repo.List(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				return backoff.Permanent(err)
			}
			return err
		}
		plans = list
		return nil
	}, backoff.WithContext(p.newBO(), ctx))

	fetchedAt := p.now()
	p.recorder.PlanPoll(err, fetchedAt)
	if err != nil {
		return fmt.Errorf("production: leer planes: %w", err)
	}

	p.mu.Lock()
	p.snap = PlanSnapshot{Plans: plans, FetchedAt: fetchedAt}
	p.loaded = true
	p.mu.Unlock()
	p.log.Debug().Int("plans", len(plans)).Msg("planes de producción actualizados")
	return nil
}

// Snapshot devuelve la última foto; ok=false si nunca se leyó.
func (p *PlanPoller) Snapshot() (PlanSnapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap, p.loaded
}

// Plans implementa PlanSource. Sin foto previa hace una lectura síncrona.
func (p *PlanPoller) Plans(ctx context.Context) ([]entity.ProductionPlan, error) {
	if snap, ok := p.Snapshot(); ok {
		return snap.Plans, nil
	}
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	snap, _ := p.Snapshot()
	return snap.Plans, nil
}
