// Package metrics expone métricas Prometheus del flujo de producción.
package metrics

import (
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/produccion-flow/internal/domain"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
)

// FlowMetrics implementa production.FlowRecorder.
type FlowMetrics struct {
	StageCompletions *prometheus.CounterVec // labels: stage, partial
	Rejections       *prometheus.CounterVec // labels: stage, cause
	PlanPolls        *prometheus.CounterVec // labels: result
	SnapshotAge      prometheus.GaugeFunc

	lastFetch atomic.Int64 // unix nano de la última lectura exitosa
	now       func() time.Time
}

// NewFlowMetrics registra las métricas en registry (nil = registro por defecto).
func NewFlowMetrics(registry prometheus.Registerer) *FlowMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	m := &FlowMetrics{
		StageCompletions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "production_stage_completions_total",
				Help: "Etapas marcadas como completadas",
			},
			[]string{"stage", "partial"},
		),
		Rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "production_gate_rejections_total",
				Help: "Movimientos rechazados por compuerta, plan o cantidad",
			},
			[]string{"stage", "cause"},
		),
		PlanPolls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "production_plan_polls_total",
				Help: "Lecturas de planes de producción",
			},
			[]string{"result"},
		),
		now: time.Now,
	}
	m.SnapshotAge = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "production_plan_snapshot_age_seconds",
			Help: "Antigüedad de la foto de planes en memoria (-1 si nunca se leyó)",
		},
		m.snapshotAge,
	)
	return m
}

// StageCompleted implementa FlowRecorder.
func (m *FlowMetrics) StageCompleted(stage entity.StageID, partial bool) {
	m.StageCompletions.WithLabelValues(string(stage), strconv.FormatBool(partial)).Inc()
}

// Rejected implementa FlowRecorder.
func (m *FlowMetrics) Rejected(stage entity.StageID, cause error) {
	m.Rejections.WithLabelValues(string(stage), CauseLabel(cause)).Inc()
}

// PlanPoll implementa FlowRecorder.
func (m *FlowMetrics) PlanPoll(err error, fetchedAt time.Time) {
	if err != nil {
		m.PlanPolls.WithLabelValues("error").Inc()
		return
	}
	m.PlanPolls.WithLabelValues("ok").Inc()
	m.lastFetch.Store(fetchedAt.UnixNano())
}

func (m *FlowMetrics) snapshotAge() float64 {
	last := m.lastFetch.Load()
	if last == 0 {
		return -1
	}
	return m.now().Sub(time.Unix(0, last)).Seconds()
}

// CauseLabel etiqueta acotada para la causa de un rechazo.
func CauseLabel(cause error) string {
	switch {
	case cause == nil:
		return "none"
	case errors.Is(cause, domain.ErrStageGateClosed):
		return "gate_closed"
	case errors.Is(cause, domain.ErrNoProductionPlan):
		return "no_plan"
	case errors.Is(cause, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(cause, domain.ErrQuantityExceedsRemaining):
		return "quantity_exceeds"
	case errors.Is(cause, domain.ErrConflict):
		return "conflict"
	}
	return "other"
}
