package production_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
)

func TestNextStage_Ramificacion(t *testing.T) {
	cases := []struct {
		current entity.StageID
		ot      entity.OrderType
		want    entity.StageID
	}{
		{entity.StageNew, entity.OrderTypeCableOnly, entity.StageStore1},
		{entity.StageNew, entity.OrderTypePowerCord, entity.StageStore1},
		{entity.StageStore1, entity.OrderTypeCableOnly, entity.StageDispatch},
		{entity.StageStore1, entity.OrderTypePowerCord, entity.StageCableProduction},
		{entity.StageCableProduction, entity.OrderTypeCableOnly, entity.StageDispatch},
		{entity.StageCableProduction, entity.OrderTypePowerCord, entity.StageStore2},
		{entity.StageStore2, entity.OrderTypePowerCord, entity.StageMoulding},
		{entity.StageMoulding, entity.OrderTypePowerCord, entity.StageFGSection},
		{entity.StageFGSection, entity.OrderTypePowerCord, entity.StageDispatch},
		{entity.StageDispatch, entity.OrderTypeCableOnly, entity.StageDelivered},
		{entity.StageDispatch, entity.OrderTypePowerCord, entity.StageDelivered},
	}
	for _, tc := range cases {
		got, ok := production.NextStage(tc.current, tc.ot)
		assert.True(t, ok, "%s/%s", tc.current, tc.ot)
		assert.Equal(t, tc.want, got, "%s/%s", tc.current, tc.ot)
	}
}

func TestNextStage_TerminalODesconocida(t *testing.T) {
	_, ok := production.NextStage(entity.StageDelivered, entity.OrderTypePowerCord)
	assert.False(t, ok)
	_, ok = production.NextStage("PAINTING", entity.OrderTypePowerCord)
	assert.False(t, ok)
}

// Un tipo de orden no reconocido sigue el camino POWER_CORD.
func TestNextStage_TipoDeOrdenDesconocido(t *testing.T) {
	got, ok := production.NextStage(entity.StageStore1, "SOMETHING_ELSE")
	assert.True(t, ok)
	assert.Equal(t, entity.StageCableProduction, got)
	assert.Equal(t, entity.OrderTypePowerCord, production.ParseOrderType("something else"))
	assert.Equal(t, entity.OrderTypeCableOnly, production.ParseOrderType(" cable only "))
}

func TestStages_OrdenCanonico(t *testing.T) {
	stages := production.Stages()
	assert.Len(t, stages, 8)
	for i, def := range stages {
		assert.Equal(t, i, def.Order)
	}
	assert.Equal(t, entity.StageNew, stages[0].ID)
	assert.Equal(t, entity.StageDelivered, stages[len(stages)-1].ID)
}

func TestEffectivePredecessor(t *testing.T) {
	pred, ok := production.EffectivePredecessor(entity.StageDispatch, entity.OrderTypePowerCord)
	assert.True(t, ok)
	assert.Equal(t, entity.StageFGSection, pred)

	pred, ok = production.EffectivePredecessor(entity.StageDispatch, entity.OrderTypeCableOnly)
	assert.True(t, ok)
	assert.Equal(t, entity.StageStore1, pred)

	_, ok = production.EffectivePredecessor(entity.StageNew, entity.OrderTypePowerCord)
	assert.False(t, ok)
}

func TestParseStage(t *testing.T) {
	for _, in := range []string{"cable_production", "cable-production", " CABLE_PRODUCTION "} {
		id, ok := production.ParseStage(in)
		assert.True(t, ok, in)
		assert.Equal(t, entity.StageCableProduction, id)
	}
	_, ok := production.ParseStage("painting")
	assert.False(t, ok)
}
