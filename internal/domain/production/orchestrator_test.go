package production_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/produccion-flow/internal/domain"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var testToday = time.Date(2024, 1, 22, 11, 0, 0, 0, time.Local)

func newOrchestrator(t *testing.T) *production.FlowOrchestrator {
	t.Helper()
	return production.NewFlowOrchestrator(fixedCodec(t, testToday), production.NewPlanReconciler(zerolog.Nop()))
}

func exampleBatch() *entity.Batch {
	return &entity.Batch{
		DispatchID:   "DSP-001",
		UniqueID:     "ORD-77",
		OrderType:    entity.OrderTypePowerCord,
		Quantity:     1000,
		Store1Status: "COMPLETED|2024-01-20|2024-01-15",
	}
}

func planFor(dispatchID string) []entity.ProductionPlan {
	return []entity.ProductionPlan{{PlanID: "PLAN-1", BatchInfo: `[{"dispatchId":"` + dispatchID + `"}]`}}
}

// ──────────────────────────────────────────────────────────────────────────────
// RequestStageCompletion
// ──────────────────────────────────────────────────────────────────────────────

// Escenario de referencia: 1000 unidades, se completan 400 en producción de cable con plan.
func TestRequestStageCompletion_ParcialConPlan(t *testing.T) {
	o := newOrchestrator(t)
	b := exampleBatch()

	res, err := o.RequestStageCompletion(b, production.CompletionRequest{
		Stage:    entity.StageCableProduction,
		Quantity: intPtr(400),
	}, planFor("DSP-001"))
	require.NoError(t, err)
	require.True(t, res.Allowed, res.Reason)

	m := res.Mutation
	require.NotNil(t, m)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "DSP-001", m.DispatchID)
	assert.Equal(t, production.FieldCableProdStatus, m.StatusField)
	assert.Equal(t, "COMPLETED|2024-01-22", m.Status)
	require.NotNil(t, m.UpdatedQuantity)
	assert.Equal(t, 400, *m.UpdatedQuantity)
	require.NotNil(t, m.Append)
	assert.Equal(t, 400, m.Append.QuantityMoved)
	assert.Equal(t, 600, m.Append.QuantityRemaining)
	assert.Equal(t, "2024-01-22", m.Append.Date)
	require.NotNil(t, m.Remainder)
	assert.Equal(t, "DSP-001-S1", m.Remainder.DispatchID)
	assert.Equal(t, "ORD-77", m.Remainder.UniqueID)
	assert.Equal(t, 600, m.Remainder.Quantity)

	// el lote de entrada no se modifica
	assert.Empty(t, b.CableProdStatus)
	assert.Nil(t, b.UpdatedQuantity)
}

func TestRequestStageCompletion_SinPlanRechazada(t *testing.T) {
	o := newOrchestrator(t)

	res, err := o.RequestStageCompletion(exampleBatch(), production.CompletionRequest{
		Stage:    entity.StageCableProduction,
		Quantity: intPtr(400),
	}, planFor("OTRO"))
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, "no production plan exists yet", res.Reason)
	assert.ErrorIs(t, res.Cause, domain.ErrNoProductionPlan)
	assert.Nil(t, res.Mutation)
}

func TestRequestStageCompletion_CompuertaCerrada(t *testing.T) {
	o := newOrchestrator(t)
	b := exampleBatch()

	res, err := o.RequestStageCompletion(b, production.CompletionRequest{Stage: entity.StageMoulding}, nil)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "Store 2")
	assert.ErrorIs(t, res.Cause, domain.ErrStageGateClosed)
}

// Las demás etapas no dependen del plan.
func TestRequestStageCompletion_OtrasEtapasSinPlan(t *testing.T) {
	o := newOrchestrator(t)
	b := exampleBatch()
	b.CableProdStatus = "COMPLETED|2024-01-21"

	res, err := o.RequestStageCompletion(b, production.CompletionRequest{Stage: entity.StageStore2}, nil)
	require.NoError(t, err)
	require.True(t, res.Allowed, res.Reason)
	assert.Equal(t, "COMPLETED|2024-01-22", res.Mutation.Status)
	assert.Nil(t, res.Mutation.UpdatedQuantity, "movimiento total no cambia la cantidad")
	assert.Nil(t, res.Mutation.Append)
	assert.Nil(t, res.Mutation.Remainder)
}

func TestRequestStageCompletion_ConservaFechaLimite(t *testing.T) {
	o := newOrchestrator(t)
	b := exampleBatch()
	b.CableProdStatus = "COMPLETED|2024-01-21"
	b.Store2Status = "IN_PROGRESS|2024-01-25"

	res, err := o.RequestStageCompletion(b, production.CompletionRequest{Stage: entity.StageStore2}, nil)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED|2024-01-22|2024-01-25", res.Mutation.Status)
}

func TestRequestStageCompletion_CantidadInvalida(t *testing.T) {
	o := newOrchestrator(t)

	res, err := o.RequestStageCompletion(exampleBatch(), production.CompletionRequest{
		Stage: entity.StageCableProduction, Quantity: intPtr(1500),
	}, planFor("DSP-001"))
	assert.ErrorIs(t, err, domain.ErrQuantityExceedsRemaining)
	assert.False(t, res.Allowed)
	assert.Equal(t, "quantity to move (1500) exceeds the available quantity (1000)", res.Reason)

	res, err = o.RequestStageCompletion(exampleBatch(), production.CompletionRequest{
		Stage: entity.StageCableProduction, Quantity: intPtr(0),
	}, planFor("DSP-001"))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.NotEmpty(t, res.Reason)
}

func TestRequestStageCompletion_YaCompletada(t *testing.T) {
	o := newOrchestrator(t)
	res, err := o.RequestStageCompletion(exampleBatch(), production.CompletionRequest{Stage: entity.StageStore1}, nil)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, "Store 1 is already completed", res.Reason)
	assert.ErrorIs(t, res.Cause, domain.ErrConflict)
}

func TestRequestStageCompletion_EtapaSinCampo(t *testing.T) {
	o := newOrchestrator(t)
	_, err := o.RequestStageCompletion(exampleBatch(), production.CompletionRequest{Stage: entity.StageDelivered}, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownStage)

	_, err = o.RequestStageCompletion(nil, production.CompletionRequest{Stage: entity.StageStore1}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// RequestStageAdvance
// ──────────────────────────────────────────────────────────────────────────────

func TestRequestStageAdvance(t *testing.T) {
	o := newOrchestrator(t)

	adv := o.RequestStageAdvance(exampleBatch())
	assert.True(t, adv.Allowed)
	assert.Equal(t, entity.StageStore1, adv.Current)
	assert.Equal(t, entity.StageCableProduction, adv.Next)

	co := exampleBatch()
	co.OrderType = entity.OrderTypeCableOnly
	adv = o.RequestStageAdvance(co)
	assert.Equal(t, entity.StageDispatch, adv.Next)

	pending := exampleBatch()
	pending.CableProdStatus = "IN_PROGRESS"
	adv = o.RequestStageAdvance(pending)
	assert.False(t, adv.Allowed)
	assert.Empty(t, adv.Next)
	assert.Contains(t, adv.Reason, "Cable Production")

	delivered := exampleBatch()
	delivered.OrderType = entity.OrderTypeCableOnly
	delivered.DispatchStatus = "COMPLETED|2024-01-30"
	adv = o.RequestStageAdvance(delivered)
	assert.Equal(t, entity.StageDelivered, adv.Next)
}

// ──────────────────────────────────────────────────────────────────────────────
// Apply
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_ParcialGeneraRemanente(t *testing.T) {
	o := newOrchestrator(t)
	b := exampleBatch()
	res, err := o.RequestStageCompletion(b, production.CompletionRequest{
		Stage: entity.StageCableProduction, Quantity: intPtr(400), Details: "primer turno",
	}, planFor("DSP-001"))
	require.NoError(t, err)

	updated, rem, applied := production.Apply(b, res.Mutation, testToday)
	require.True(t, applied)
	assert.Equal(t, "COMPLETED|2024-01-22", updated.CableProdStatus)
	assert.Equal(t, 400, updated.EffectiveQuantity())
	assert.Len(t, updated.MoveHistory, 1)
	assert.Equal(t, res.Mutation.ID, updated.LastMutationID)

	require.NotNil(t, rem)
	assert.Equal(t, "DSP-001-S1", rem.DispatchID)
	assert.Equal(t, 600, rem.EffectiveQuantity())
	assert.Empty(t, rem.CableProdStatus, "el remanente sigue en la etapa")
	assert.Equal(t, 1000, rem.Quantity)
	assert.NoError(t, production.VerifyLedger(production.LedgerFor(rem.MoveHistory, entity.StageCableProduction), rem.Quantity))

	// aplicar dos veces la misma mutación no cambia nada
	again, rem2, applied := production.Apply(updated, res.Mutation, testToday)
	assert.False(t, applied)
	assert.Nil(t, rem2)
	assert.Equal(t, updated, again)
}

// El remanente puede dividirse otra vez (con su propio plan) y la suma se mantiene.
func TestApply_RemanenteSeDivideDeNuevo(t *testing.T) {
	o := newOrchestrator(t)
	b := exampleBatch()
	res, err := o.RequestStageCompletion(b, production.CompletionRequest{
		Stage: entity.StageCableProduction, Quantity: intPtr(400),
	}, planFor("DSP-001"))
	require.NoError(t, err)
	_, rem, _ := production.Apply(b, res.Mutation, testToday)

	res, err = o.RequestStageCompletion(rem, production.CompletionRequest{
		Stage: entity.StageCableProduction, Quantity: intPtr(100),
	}, planFor(rem.DispatchID))
	require.NoError(t, err)
	require.True(t, res.Allowed, res.Reason)
	assert.Equal(t, "DSP-001-S1-S2", res.Mutation.Remainder.DispatchID)
	assert.Equal(t, 500, res.Mutation.Remainder.Quantity)

	_, rem2, _ := production.Apply(rem, res.Mutation, testToday)
	ledger := production.LedgerFor(rem2.MoveHistory, entity.StageCableProduction)
	require.Len(t, ledger, 2)
	assert.NoError(t, production.VerifyLedger(ledger, 1000))
}

// Movimiento total con cantidad explícita: entrada con remaining 0, sin remanente.
func TestRequestStageCompletion_TotalExplicitoRegistraHistorial(t *testing.T) {
	o := newOrchestrator(t)
	b := exampleBatch()
	b.CableProdStatus = "COMPLETED|2024-01-21"

	res, err := o.RequestStageCompletion(b, production.CompletionRequest{
		Stage: entity.StageStore2, Quantity: intPtr(1000),
	}, nil)
	require.NoError(t, err)
	require.True(t, res.Allowed, res.Reason)
	require.NotNil(t, res.Mutation.Append)
	assert.Equal(t, 1000, res.Mutation.Append.QuantityMoved)
	assert.Equal(t, 0, res.Mutation.Append.QuantityRemaining)
	assert.Nil(t, res.Mutation.Remainder)
	assert.Nil(t, res.Mutation.UpdatedQuantity)
}

// El remanente -S1 se mueve completo: el historial de la etapa cierra en 0.
func TestApply_RemanenteMovidoCompletoCierraHistorial(t *testing.T) {
	o := newOrchestrator(t)
	b := exampleBatch()
	res, err := o.RequestStageCompletion(b, production.CompletionRequest{
		Stage: entity.StageCableProduction, Quantity: intPtr(400),
	}, planFor("DSP-001"))
	require.NoError(t, err)
	_, rem, _ := production.Apply(b, res.Mutation, testToday)
	require.Equal(t, "DSP-001-S1", rem.DispatchID)

	// sin cantidad: al tener historial en la etapa también se registra
	res, err = o.RequestStageCompletion(rem, production.CompletionRequest{
		Stage: entity.StageCableProduction,
	}, planFor(rem.DispatchID))
	require.NoError(t, err)
	require.True(t, res.Allowed, res.Reason)
	assert.Nil(t, res.Mutation.Remainder)

	done, none, applied := production.Apply(rem, res.Mutation, testToday)
	require.True(t, applied)
	assert.Nil(t, none)
	ledger := production.LedgerFor(done.MoveHistory, entity.StageCableProduction)
	require.Len(t, ledger, 2)
	assert.Equal(t, 600, ledger[1].QuantityMoved)
	assert.Equal(t, 0, ledger[1].QuantityRemaining)
	assert.NoError(t, production.VerifyLedger(ledger, 1000))
}

// CABLE_ONLY no pasa por Store 2, moldeo, producto terminado ni producción de cable.
func TestRequestStageCompletion_EtapaFueraDelRecorrido(t *testing.T) {
	o := newOrchestrator(t)
	b := exampleBatch()
	b.OrderType = entity.OrderTypeCableOnly

	for _, stage := range []entity.StageID{entity.StageCableProduction, entity.StageStore2, entity.StageMoulding, entity.StageFGSection} {
		res, err := o.RequestStageCompletion(b, production.CompletionRequest{Stage: stage}, planFor("DSP-001"))
		require.NoError(t, err)
		assert.False(t, res.Allowed, stage)
		assert.ErrorIs(t, res.Cause, domain.ErrConflict)
		assert.Equal(t, stage.Label()+" does not apply to CABLE_ONLY orders", res.Reason)

		gate := o.CanComplete(b, stage, planFor("DSP-001"))
		assert.False(t, gate.Allowed, stage)
	}

	res, err := o.RequestStageCompletion(b, production.CompletionRequest{Stage: entity.StageDispatch}, nil)
	require.NoError(t, err)
	assert.True(t, res.Allowed, res.Reason)
}
