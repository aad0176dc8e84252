package production_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
)

func TestIsAlreadyCommitted_Exactitud(t *testing.T) {
	r := production.NewPlanReconciler(zerolog.Nop())
	plans := []entity.ProductionPlan{
		{PlanID: "P1", BatchInfo: `[{"dispatchId":"D1","batchId":"B-7"}]`},
		{PlanID: "P2", BatchInfo: `[{"dispatchId":"D2"}]`},
	}

	assert.True(t, r.IsAlreadyCommitted("D1", plans))
	assert.True(t, r.IsAlreadyCommitted("D2", plans))
	assert.False(t, r.IsAlreadyCommitted("D3", plans))
	// batchId no participa en la conciliación
	assert.False(t, r.IsAlreadyCommitted("B-7", plans))
	// coincidencia exacta: ni prefijos ni mayúsculas
	assert.False(t, r.IsAlreadyCommitted("D", plans))
	assert.False(t, r.IsAlreadyCommitted("d1", plans))
	assert.False(t, r.IsAlreadyCommitted("", plans))
}

// batchInfo mal formado no falla, no coincide y queda registrado en el log.
func TestIsAlreadyCommitted_BatchInfoMalFormado(t *testing.T) {
	var buf bytes.Buffer
	r := production.NewPlanReconciler(zerolog.New(&buf))
	plans := []entity.ProductionPlan{
		{PlanID: "BROKEN", BatchInfo: `[{"dispatchId":"D1"`},
		{PlanID: "EMPTY"},
		{PlanID: "WEIRD", BatchInfo: 42},
	}

	assert.NotPanics(t, func() {
		assert.False(t, r.IsAlreadyCommitted("D1", plans))
	})
	assert.Contains(t, buf.String(), "BROKEN")
	assert.Contains(t, buf.String(), "WEIRD")
	assert.NotContains(t, buf.String(), "EMPTY", "un plan sin batchInfo no es un error")
}

// El transporte puede entregar batchInfo ya decodificado.
func TestIsAlreadyCommitted_BatchInfoYaDecodificado(t *testing.T) {
	r := production.NewPlanReconciler(zerolog.Nop())
	plans := []entity.ProductionPlan{
		{PlanID: "A", BatchInfo: []any{map[string]any{"dispatchId": "D10"}, "ruido"}},
		{PlanID: "B", BatchInfo: []map[string]any{{"dispatchId": "D11"}}},
		{PlanID: "C", BatchInfo: []entity.PlanBatch{{DispatchID: "D12"}}},
		{PlanID: "D", BatchInfo: map[string]any{"dispatchId": "D13"}},
		{PlanID: "E", BatchInfo: []byte(`[{"dispatchId":"D14"}]`)},
		{PlanID: "F", BatchInfo: `"[{\"dispatchId\":\"D15\"}]"`},
		{PlanID: "G", BatchInfo: `[{"dispatchId":1001}]`},
	}
	for _, id := range []string{"D10", "D11", "D12", "D13", "D14", "D15", "1001"} {
		assert.True(t, r.IsAlreadyCommitted(id, plans), id)
	}
}

func TestCommittedSet(t *testing.T) {
	r := production.NewPlanReconciler(zerolog.Nop())
	set := r.CommittedSet([]entity.ProductionPlan{
		{BatchInfo: `[{"dispatchId":"D1"},{"dispatchId":"D2"}]`},
		{BatchInfo: `not json`},
		{BatchInfo: `[{"dispatchId":"D2"},{"other":"x"}]`},
	})
	assert.Len(t, set, 2)
	assert.Contains(t, set, "D1")
	assert.Contains(t, set, "D2")
}
