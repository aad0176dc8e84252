package metrics_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/produccion-flow/internal/domain"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/infrastructure/metrics"
)

func TestFlowMetrics_Contadores(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewFlowMetrics(reg)

	m.StageCompleted(entity.StageCableProduction, true)
	m.StageCompleted(entity.StageCableProduction, true)
	m.StageCompleted(entity.StageStore1, false)
	m.Rejected(entity.StageCableProduction, domain.ErrNoProductionPlan)
	m.PlanPoll(errors.New("timeout"), time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StageCompletions.WithLabelValues("CABLE_PRODUCTION", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageCompletions.WithLabelValues("STORE1", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("CABLE_PRODUCTION", "no_plan")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlanPolls.WithLabelValues("error")))
}

func TestFlowMetrics_EdadDeLaFoto(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewFlowMetrics(reg)

	assert.Equal(t, -1.0, testutil.ToFloat64(m.SnapshotAge))

	m.PlanPoll(nil, time.Now().Add(-30*time.Second))
	assert.InDelta(t, 30, testutil.ToFloat64(m.SnapshotAge), 2)

	count, err := testutil.GatherAndCount(reg, "production_plan_snapshot_age_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCauseLabel(t *testing.T) {
	wrapped := fmt.Errorf("%w: 900 > 600", domain.ErrQuantityExceedsRemaining)
	assert.Equal(t, "quantity_exceeds", metrics.CauseLabel(wrapped))
	assert.Equal(t, "gate_closed", metrics.CauseLabel(domain.ErrStageGateClosed))
	assert.Equal(t, "conflict", metrics.CauseLabel(domain.ErrConflict))
	assert.Equal(t, "other", metrics.CauseLabel(errors.New("x")))
	assert.Equal(t, "none", metrics.CauseLabel(nil))
}
